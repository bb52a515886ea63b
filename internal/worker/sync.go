package worker

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ternbury/commentsync/internal/config"
	"github.com/ternbury/commentsync/internal/creds"
	"github.com/ternbury/commentsync/internal/facebook"
	"github.com/ternbury/commentsync/internal/ingest"
	"github.com/ternbury/commentsync/internal/reply"
	"github.com/ternbury/commentsync/internal/sentiment"
	"github.com/ternbury/commentsync/internal/store"
)

// maxPages bounds pagination per post so a runaway thread cannot pin a
// worker forever.
const maxPages = 200

const maxRetries = 3

func backoffWithJitter(attempt int) time.Duration {
	const (
		baseDelay = 1 * time.Second
		maxDelay  = 30 * time.Second
	)

	delay := baseDelay * (1 << attempt)
	if delay > maxDelay {
		delay = maxDelay
	}

	var b [8]byte
	_, _ = rand.Read(b[:])
	jitter := time.Duration(binary.LittleEndian.Uint64(b[:]) % uint64(delay))

	return jitter
}

// Options selects which pipeline stages a run performs after the fetch and
// merge. MaxReplies of zero falls back to the configured per-post cap.
type Options struct {
	Classify   bool
	Reply      bool
	Force      bool
	MaxReplies int
}

type OutcomeStatus string

const (
	StatusOK      OutcomeStatus = "ok"
	StatusFailed  OutcomeStatus = "failed"
	StatusSkipped OutcomeStatus = "skipped"
)

// PostOutcome records how one post fared inside a bulk run.
type PostOutcome struct {
	PostID      string             `json:"post_id"`
	ContentID   string             `json:"content_id"`
	Status      OutcomeStatus      `json:"status"`
	NewComments int                `json:"new_comments"`
	Analyzed    int                `json:"analyzed"`
	Skipped     int                `json:"skipped"`
	Replied     int                `json:"replied"`
	ReplyTypes  map[reply.Type]int `json:"reply_types,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Summary is the result of one bulk run across all registered posts.
// Succeeded/Failed/Skipped count posts; the Total* fields aggregate
// comment-level counts across every successful post.
type Summary struct {
	RunID         uuid.UUID          `json:"run_id"`
	StartedAt     time.Time          `json:"started_at"`
	Duration      time.Duration      `json:"duration"`
	Total         int                `json:"total"`
	Succeeded     int                `json:"succeeded"`
	Failed        int                `json:"failed"`
	Skipped       int                `json:"skipped"`
	TotalNew      int                `json:"total_new"`
	TotalAnalyzed int                `json:"total_analyzed"`
	TotalSkipped  int                `json:"total_skipped"`
	TotalReplied  int                `json:"total_replied"`
	ReplyTypes    map[reply.Type]int `json:"reply_types"`
	Error         string             `json:"error,omitempty"`
	Posts         []PostOutcome      `json:"posts"`
}

// RunBulkSync is the scheduler entry point: background context, outcome via
// the returned summary only.
func RunBulkSync(st store.Store, graph *facebook.Client, analyzer sentiment.Analyzer, cfg *config.AppConfig, opts Options) *Summary {
	summary, err := BulkSync(context.Background(), st, graph, analyzer, cfg, opts)
	if err != nil {
		log.Printf("Worker: Bulk sync aborted: %v", err)
	}
	return summary
}

// BulkSync fetches, merges, classifies and replies across every registered
// post. The credential is resolved once up front; a credential failure
// aborts the run before any post is touched. Posts run concurrently up to
// cfg.MaxConcurrentPosts, and a failure inside one post never stops the
// others. Cancelling ctx stops posts that have not started yet.
func BulkSync(ctx context.Context, st store.Store, graph *facebook.Client, analyzer sentiment.Analyzer, cfg *config.AppConfig, opts Options) (*Summary, error) {
	summary := &Summary{
		RunID:      uuid.New(),
		StartedAt:  time.Now().UTC(),
		ReplyTypes: make(map[reply.Type]int),
	}
	defer func() { summary.Duration = time.Since(summary.StartedAt) }()

	cred, err := creds.Resolve(cfg.CredentialsFile, cfg.PageID)
	if err != nil {
		summary.Error = err.Error()
		return summary, err
	}
	if err := creds.Classify(ctx, graph, cred); err != nil {
		summary.Error = err.Error()
		return summary, err
	}

	posts, err := st.ListPostedContent(ctx)
	if err != nil {
		summary.Error = err.Error()
		return summary, err
	}

	summary.Total = len(posts)
	summary.Posts = make([]PostOutcome, len(posts))

	limit := cfg.MaxConcurrentPosts
	if limit <= 0 {
		limit = 4
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, post := range posts {
		i, post := i, post
		if ctx.Err() != nil {
			summary.Posts[i] = PostOutcome{
				PostID:    post.PostID,
				ContentID: post.ID.String(),
				Status:    StatusSkipped,
				Error:     ctx.Err().Error(),
			}
			continue
		}
		g.Go(func() error {
			summary.Posts[i] = syncPostWithRetry(ctx, st, graph, analyzer, cfg, cred, post, opts)
			return nil
		})
	}
	_ = g.Wait()

	for _, out := range summary.Posts {
		switch out.Status {
		case StatusOK:
			summary.Succeeded++
		case StatusFailed:
			summary.Failed++
		default:
			summary.Skipped++
		}
		summary.TotalNew += out.NewComments
		summary.TotalAnalyzed += out.Analyzed
		summary.TotalSkipped += out.Skipped
		summary.TotalReplied += out.Replied
		for t, n := range out.ReplyTypes {
			summary.ReplyTypes[t] += n
		}
	}
	return summary, nil
}

func syncPostWithRetry(ctx context.Context, st store.Store, graph *facebook.Client, analyzer sentiment.Analyzer, cfg *config.AppConfig, cred *creds.Credential, post store.PostedContent, opts Options) PostOutcome {
	outcome := PostOutcome{
		PostID:    post.PostID,
		ContentID: post.ID.String(),
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		isLastRetry := attempt == maxRetries

		err := func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Worker Panic in post sync (post=%s attempt=%d): %v", post.PostID, attempt+1, r)
				}
			}()
			return SyncPost(ctx, st, graph, analyzer, cfg, cred, post, opts, &outcome)
		}()

		if err == nil {
			outcome.Status = StatusOK
			return outcome
		}

		if !facebook.IsTransient(err) || isLastRetry {
			log.Printf("Worker Post sync FAILED (post=%s attempt=%d): %v", post.PostID, attempt+1, err)
			outcome.Status = StatusFailed
			outcome.Error = err.Error()
			return outcome
		}

		delay := backoffWithJitter(attempt)
		log.Printf("Worker Post sync error (post=%s attempt=%d). Retrying in %s: %v", post.PostID, attempt+1, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			outcome.Status = StatusFailed
			outcome.Error = ctx.Err().Error()
			return outcome
		}
	}

	outcome.Status = StatusFailed
	return outcome
}

// SyncPost runs the full pipeline for a single post: paginate the thread,
// merge into the stored snapshot and persist it, then classify what is
// unlabeled and dispatch replies, persisting again when either enrichment
// ran.
func SyncPost(ctx context.Context, st store.Store, graph *facebook.Client, analyzer sentiment.Analyzer, cfg *config.AppConfig, cred *creds.Credential, post store.PostedContent, opts Options, outcome *PostOutcome) error {
	existing, err := st.GetSnapshot(ctx, post.ID, post.PostID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	var fetched []store.Comment
	after := ""
	for page := 0; page < maxPages; page++ {
		batch, next, err := graph.FetchComments(ctx, post.PostID, cred.Token, after)
		if err != nil {
			return err
		}
		fetched = append(fetched, batch...)
		if next == "" {
			break
		}
		after = next
	}

	snap, added := ingest.Merge(existing, post.ID, post.PostID, fetched)
	outcome.NewComments = added

	if err := st.PutSnapshot(ctx, post.ID, snap); err != nil {
		return err
	}

	if opts.Classify && analyzer != nil {
		res := sentiment.Classify(ctx, analyzer, snap, opts.Force)
		outcome.Analyzed = res.Analyzed
		outcome.Skipped = res.Skipped
	}

	if opts.Reply {
		maxReplies := opts.MaxReplies
		if maxReplies <= 0 {
			maxReplies = cfg.MaxRepliesPerPost
		}
		stats := reply.Dispatch(ctx, graph, snap, cred.Token, cred.PageID, maxReplies)
		outcome.Replied = stats.Replied
		outcome.ReplyTypes = stats.ReplyTypes
	}

	if !opts.Classify && !opts.Reply {
		return nil
	}
	return st.PutSnapshot(ctx, post.ID, snap)
}
