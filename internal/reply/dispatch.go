package reply

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/ternbury/commentsync/internal/facebook"
	"github.com/ternbury/commentsync/internal/ingest"
	"github.com/ternbury/commentsync/internal/store"
)

// Poster is the platform surface the dispatcher needs. The Graph client
// satisfies it; tests substitute a fake.
type Poster interface {
	PostReply(ctx context.Context, commentID, message, token string) (string, error)
}

// Stats summarizes one dispatch pass over a snapshot.
type Stats struct {
	TotalConsidered int          `json:"total_considered"`
	Replied         int          `json:"replied"`
	Failed          int          `json:"failed"`
	Orphaned        int          `json:"orphaned"`
	ReplyTypes      map[Type]int `json:"reply_types"`
}

// Dispatch posts automatic replies for the eligible comments of a snapshot,
// oldest first. maxReplies bounds the number of eligible comments attempted
// per invocation (0 means no cap); an attempt consumes budget whether or not
// the remote post succeeds, so a failing platform is never hammered past the
// cap. A comment is eligible when it has not been replied to, carries a
// non-empty message, was not written by the page itself, and is not labeled
// negative. Failures on one comment never stop the rest. Comments the
// platform reports as gone are pruned from the snapshot. The snapshot is
// mutated in place; the caller persists it.
func Dispatch(ctx context.Context, p Poster, snap *store.Snapshot, token, pageID string, maxReplies int) Stats {
	stats := Stats{ReplyTypes: make(map[Type]int)}

	idx := make([]int, 0, len(snap.Comments))
	for i := range snap.Comments {
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool {
		ca, cb := snap.Comments[idx[a]], snap.Comments[idx[b]]
		if !ca.CreatedTime.Equal(cb.CreatedTime) {
			return ca.CreatedTime.Before(cb.CreatedTime)
		}
		return ca.ID < cb.ID
	})

	gone := make(map[string]bool)
	for _, i := range idx {
		if ctx.Err() != nil {
			break
		}
		if maxReplies > 0 && stats.TotalConsidered >= maxReplies {
			break
		}
		c := &snap.Comments[i]
		if !eligible(c, pageID) {
			continue
		}
		stats.TotalConsidered++

		t := ClassifyType(c.Message)
		text := BuildReply(t, c.AuthorName)
		replyID, err := p.PostReply(ctx, c.ID, text, token)
		if err != nil {
			if facebook.IsCommentGone(err) {
				log.Printf("reply: comment %s no longer exists, pruning", c.ID)
				gone[c.ID] = true
				stats.Orphaned++
				continue
			}
			log.Printf("reply: comment %s: %v", c.ID, err)
			stats.Failed++
			continue
		}

		now := time.Now().UTC()
		c.Replied = true
		c.ReplyID = replyID
		c.RepliedAt = &now
		stats.Replied++
		stats.ReplyTypes[t]++
	}

	ingest.Prune(snap, gone)
	return stats
}

func eligible(c *store.Comment, pageID string) bool {
	if c.Replied {
		return false
	}
	if c.Message == "" {
		return false
	}
	if pageID != "" && c.AuthorID == pageID {
		return false
	}
	if c.Sentiment != nil && c.Sentiment.Label == store.SentimentNegative {
		return false
	}
	return true
}
