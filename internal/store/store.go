package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Sentiment is the local enrichment attached to a comment after analysis.
type Sentiment struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Comment mirrors a single remote comment. The remote fields (message, author,
// created time, counters) are never mutated locally; Sentiment and the Replied
// fields are the only locally written enrichments.
type Comment struct {
	ID          string    `json:"id"`
	PostID      string    `json:"post_id"`
	AuthorID    string    `json:"author_id,omitempty"`
	AuthorName  string    `json:"author_name"`
	Message     string    `json:"message"`
	CreatedTime time.Time `json:"created_time"`
	LikeCount   int       `json:"like_count"`
	ReplyCount  int       `json:"reply_count"`

	Sentiment *Sentiment `json:"sentiment,omitempty"`
	Replied   bool       `json:"replied,omitempty"`
	ReplyID   string     `json:"reply_id,omitempty"`
	RepliedAt *time.Time `json:"replied_at,omitempty"`
}

// Snapshot is the stored copy of one post's comment thread at last sync time.
// Comments keep fetch order. TotalComments is recomputed on every merge.
type Snapshot struct {
	ContentID     string    `json:"content_id"`
	PostID        string    `json:"post_id"`
	Comments      []Comment `json:"comments"`
	TotalComments int       `json:"total_comments"`
	LastUpdated   time.Time `json:"last_updated"`
}

// Key returns the composite identifier used for logging and cache keys.
func (s *Snapshot) Key() string {
	return fmt.Sprintf("comments:%s:%s", s.ContentID, s.PostID)
}

// PostedContent is a row produced by the posting workflow. This engine only
// ever reads it.
type PostedContent struct {
	ID       uuid.UUID `json:"id"`
	PostID   string    `json:"facebook_post_id"`
	PageID   string    `json:"page_id"`
	Title    string    `json:"title"`
	PostedAt time.Time `json:"posted_at"`
}

// ErrNotFound is returned by GetSnapshot when no snapshot exists for the key.
var ErrNotFound = errors.New("snapshot not found")

// StorageError wraps an underlying read/write failure. The adapter never
// retries; retry policy lives in the orchestrator.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store is the persistence surface the rest of the engine depends on.
type Store interface {
	GetSnapshot(ctx context.Context, contentID uuid.UUID, postID string) (*Snapshot, error)
	GetSnapshotsByContent(ctx context.Context, contentID uuid.UUID) ([]Snapshot, error)
	PutSnapshot(ctx context.Context, contentID uuid.UUID, snap *Snapshot) error
	ListSnapshots(ctx context.Context) ([]Snapshot, error)
	ListPostedContent(ctx context.Context) ([]PostedContent, error)
}
