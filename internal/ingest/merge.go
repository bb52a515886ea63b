// Package ingest merges freshly fetched comment pages into stored snapshots.
// Merging is pure: callers fetch and persist, this package only decides what
// the next snapshot looks like.
package ingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ternbury/commentsync/internal/store"
)

// ClassificationError marks input records that cannot participate in a merge.
type ClassificationError struct {
	Reason string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("invalid comment record: %s", e.Reason)
}

// ValidateComment rejects records that lack the identity needed for
// deduplication.
func ValidateComment(c store.Comment) error {
	if c.ID == "" {
		return &ClassificationError{Reason: "missing comment id"}
	}
	return nil
}

// Merge folds fetched comments into the existing snapshot for
// (contentID, postID) and returns the next snapshot plus how many comments
// were genuinely new. The stored sequence keeps fetch order: existing
// comments stay where they are and new ones append in page order, so the
// snapshot is not necessarily chronological. Existing enrichment (sentiment
// labels, reply markers) survives a re-fetch of the same comment: the
// fetched copy refreshes only the raw fields the platform owns. Fetched
// records without an id are dropped rather than failing the whole merge.
// existing may be nil.
func Merge(existing *store.Snapshot, contentID uuid.UUID, postID string, fetched []store.Comment) (*store.Snapshot, int) {
	next := &store.Snapshot{
		ContentID: contentID.String(),
		PostID:    postID,
	}

	byID := make(map[string]store.Comment)
	var order []string
	if existing != nil {
		for _, c := range existing.Comments {
			byID[c.ID] = c
			order = append(order, c.ID)
		}
	}

	newlyAdded := 0
	for _, f := range fetched {
		if err := ValidateComment(f); err != nil {
			continue
		}
		prev, seen := byID[f.ID]
		if !seen {
			byID[f.ID] = f
			order = append(order, f.ID)
			newlyAdded++
			continue
		}
		// Refresh platform-owned fields, keep local enrichment.
		prev.Message = f.Message
		prev.AuthorID = f.AuthorID
		prev.AuthorName = f.AuthorName
		prev.CreatedTime = f.CreatedTime
		prev.LikeCount = f.LikeCount
		prev.ReplyCount = f.ReplyCount
		byID[f.ID] = prev
	}

	next.Comments = make([]store.Comment, 0, len(order))
	for _, id := range order {
		next.Comments = append(next.Comments, byID[id])
	}

	next.TotalComments = len(next.Comments)
	next.LastUpdated = time.Now().UTC()
	return next, newlyAdded
}

// Prune removes the comments whose ids appear in gone and returns the
// updated snapshot. Used when the platform reports a comment as deleted or
// otherwise unreachable.
func Prune(snap *store.Snapshot, gone map[string]bool) *store.Snapshot {
	if len(gone) == 0 {
		return snap
	}
	kept := snap.Comments[:0]
	for _, c := range snap.Comments {
		if !gone[c.ID] {
			kept = append(kept, c)
		}
	}
	snap.Comments = kept
	snap.TotalComments = len(kept)
	snap.LastUpdated = time.Now().UTC()
	return snap
}
