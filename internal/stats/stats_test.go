package stats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternbury/commentsync/internal/reply"
	"github.com/ternbury/commentsync/internal/store"
)

// snapshotStore feeds canned snapshots to the aggregator.
type snapshotStore struct {
	snaps []store.Snapshot
	calls int
}

func (s *snapshotStore) ListSnapshots(_ context.Context) ([]store.Snapshot, error) {
	s.calls++
	return s.snaps, nil
}

func (s *snapshotStore) GetSnapshot(context.Context, uuid.UUID, string) (*store.Snapshot, error) {
	return nil, store.ErrNotFound
}

func (s *snapshotStore) GetSnapshotsByContent(context.Context, uuid.UUID) ([]store.Snapshot, error) {
	return nil, nil
}

func (s *snapshotStore) PutSnapshot(context.Context, uuid.UUID, *store.Snapshot) error {
	return nil
}

func (s *snapshotStore) ListPostedContent(context.Context) ([]store.PostedContent, error) {
	return nil, nil
}

func fixtureStore() *snapshotStore {
	now := time.Now().UTC()
	return &snapshotStore{snaps: []store.Snapshot{
		{
			PostID: "post_1",
			Comments: []store.Comment{
				{ID: "c1", Message: "I love this", Sentiment: &store.Sentiment{Label: store.SentimentPositive}, Replied: true, RepliedAt: &now},
				{ID: "c2", Message: "when does it ship?", Sentiment: &store.Sentiment{Label: store.SentimentNeutral}},
			},
		},
		{
			PostID: "post_2",
			Comments: []store.Comment{
				{ID: "c3", Message: "terrible", Sentiment: &store.Sentiment{Label: store.SentimentNegative}},
				{ID: "c4", Message: "unlabeled"},
			},
		},
	}}
}

func TestSentimentStats(t *testing.T) {
	svc := NewService(fixtureStore(), nil)

	out, err := svc.Sentiment(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, out.TotalComments)
	assert.Equal(t, 3, out.Labeled)
	assert.Equal(t, 1, out.Unlabeled)
	assert.Equal(t, 1, out.ByLabel[store.SentimentPositive])
	assert.Equal(t, 1, out.ByLabel[store.SentimentNegative])
	assert.Equal(t, 2, out.ByPost["post_1"])
}

func TestReplyStats(t *testing.T) {
	svc := NewService(fixtureStore(), nil)

	out, err := svc.Replies(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, out.TotalComments)
	assert.Equal(t, 1, out.Replied)
	assert.Equal(t, 3, out.Pending)
	assert.Equal(t, 1, out.ByPost["post_1"])
	assert.Equal(t, 1, out.ByType[reply.TypeCompliment])
}

func TestStatsWithoutCacheHitsStoreEveryTime(t *testing.T) {
	st := fixtureStore()
	svc := NewService(st, nil)

	_, err := svc.Sentiment(context.Background())
	require.NoError(t, err)
	_, err = svc.Sentiment(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, st.calls, "nil cache means every call scans the store")
}
