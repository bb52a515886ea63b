// Package stats aggregates sentiment and reply figures across every stored
// snapshot, with a short-lived Redis cache in front of the scan.
package stats

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ternbury/commentsync/internal/reply"
	"github.com/ternbury/commentsync/internal/store"
)

const cacheTTL = 5 * time.Minute

type SentimentStats struct {
	TotalComments int            `json:"total_comments"`
	Labeled       int            `json:"labeled"`
	Unlabeled     int            `json:"unlabeled"`
	ByLabel       map[string]int `json:"by_label"`
	ByPost        map[string]int `json:"by_post"`
}

type ReplyStats struct {
	TotalComments int                `json:"total_comments"`
	Replied       int                `json:"replied"`
	Pending       int                `json:"pending"`
	ByType        map[reply.Type]int `json:"by_type"`
	ByPost        map[string]int     `json:"by_post"`
}

// Service computes aggregates from the store. When a Redis client is
// configured, results are cached for a few minutes; a nil client disables
// caching and every call scans the store.
type Service struct {
	store store.Store
	cache *redis.Client
}

func NewService(st store.Store, cache *redis.Client) *Service {
	return &Service{store: st, cache: cache}
}

func (s *Service) Sentiment(ctx context.Context) (*SentimentStats, error) {
	var out SentimentStats
	if s.cached(ctx, "stats:sentiment", &out) {
		return &out, nil
	}

	snaps, err := s.store.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	out.ByLabel = make(map[string]int)
	out.ByPost = make(map[string]int)
	for _, snap := range snaps {
		for _, c := range snap.Comments {
			out.TotalComments++
			out.ByPost[snap.PostID]++
			if c.Sentiment == nil {
				out.Unlabeled++
				continue
			}
			out.Labeled++
			out.ByLabel[c.Sentiment.Label]++
		}
	}

	s.put(ctx, "stats:sentiment", &out)
	return &out, nil
}

func (s *Service) Replies(ctx context.Context) (*ReplyStats, error) {
	var out ReplyStats
	if s.cached(ctx, "stats:replies", &out) {
		return &out, nil
	}

	snaps, err := s.store.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	out.ByType = make(map[reply.Type]int)
	out.ByPost = make(map[string]int)
	for _, snap := range snaps {
		for _, c := range snap.Comments {
			out.TotalComments++
			if !c.Replied {
				out.Pending++
				continue
			}
			out.Replied++
			out.ByPost[snap.PostID]++
			out.ByType[reply.ClassifyType(c.Message)]++
		}
	}

	s.put(ctx, "stats:replies", &out)
	return &out, nil
}

// Invalidate drops the cached aggregates, called after any write that
// changes snapshots.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, "stats:sentiment", "stats:replies").Err(); err != nil {
		log.Printf("stats: cache invalidation: %v", err)
	}
}

// cached loads key into dst and reports whether the cache had it. Cache
// errors are treated as misses so Redis being down never breaks stats.
func (s *Service) cached(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("stats: cache read %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("stats: cache decode %s: %v", key, err)
		return false
	}
	return true
}

func (s *Service) put(ctx context.Context, key string, val any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		log.Printf("stats: cache write %s: %v", key, err)
	}
}
