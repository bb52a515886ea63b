package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	_ "github.com/lib/pq"
)

// Postgres persists one snapshot row per (content_id, facebook_post_id). The
// composite primary key makes collisions between different pairs impossible
// by construction. Put is a full overwrite: callers merge first, the adapter
// never does.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) GetSnapshot(ctx context.Context, contentID uuid.UUID, postID string) (*Snapshot, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT snapshot FROM comment_snapshots WHERE content_id = $1 AND facebook_post_id = $2`,
		contentID, postID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}
	return &snap, nil
}

func (p *Postgres) GetSnapshotsByContent(ctx context.Context, contentID uuid.UUID) ([]Snapshot, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT snapshot FROM comment_snapshots WHERE content_id = $1 ORDER BY facebook_post_id`,
		contentID,
	)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

func (p *Postgres) PutSnapshot(ctx context.Context, contentID uuid.UUID, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return &StorageError{Op: "put", Err: err}
	}

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO comment_snapshots (content_id, facebook_post_id, snapshot, total_comments, last_updated)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (content_id, facebook_post_id)
		 DO UPDATE SET snapshot = $3, total_comments = $4, last_updated = $5`,
		contentID, snap.PostID, raw, snap.TotalComments, snap.LastUpdated,
	)
	if err != nil {
		return &StorageError{Op: "put", Err: err}
	}
	return nil
}

func (p *Postgres) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT snapshot FROM comment_snapshots ORDER BY content_id, facebook_post_id`)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

func (p *Postgres) ListPostedContent(ctx context.Context) ([]PostedContent, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, facebook_post_id, page_id, title, posted_at FROM posted_content ORDER BY posted_at`)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	var posts []PostedContent
	for rows.Next() {
		var pc PostedContent
		var postedAt time.Time
		if err := rows.Scan(&pc.ID, &pc.PostID, &pc.PageID, &pc.Title, &postedAt); err != nil {
			return nil, &StorageError{Op: "list", Err: err}
		}
		pc.PostedAt = postedAt
		posts = append(posts, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return posts, nil
}

func scanSnapshots(rows *sql.Rows) ([]Snapshot, error) {
	var snaps []Snapshot
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, &StorageError{Op: "scan", Err: err}
		}
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, &StorageError{Op: "scan", Err: err}
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "scan", Err: err}
	}
	return snaps, nil
}
