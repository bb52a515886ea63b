package reply

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternbury/commentsync/internal/facebook"
	"github.com/ternbury/commentsync/internal/store"
)

func TestClassifyType(t *testing.T) {
	cases := []struct {
		message string
		want    Type
	}{
		{"What time does it ship?", TypeQuestion},
		{"how do I order", TypeQuestion},
		{"Great, but why is it late?", TypeQuestion},
		{"I love this so much", TypeCompliment},
		{"Absolutely amazing work!", TypeCompliment},
		{"saw this yesterday", TypeGeneral},
		{"", TypeGeneral},
		{"lovely", TypeGeneral},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyType(tc.message), "message: %q", tc.message)
	}
}

func TestBuildReply(t *testing.T) {
	assert.Contains(t, BuildReply(TypeQuestion, "Bob"), "Bob")
	assert.Contains(t, BuildReply(TypeCompliment, "Bob"), "Thank you")
	assert.Contains(t, BuildReply(TypeGeneral, ""), "there", "missing author gets a fallback name")
}

type fakePoster struct {
	calls  []string
	failOn map[string]error
	nextID int
}

func (f *fakePoster) PostReply(_ context.Context, commentID, _, _ string) (string, error) {
	f.calls = append(f.calls, commentID)
	if err, ok := f.failOn[commentID]; ok {
		return "", err
	}
	f.nextID++
	return fmt.Sprintf("reply_%d", f.nextID), nil
}

var dispatchBase = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func dispatchComment(id, message string, offset time.Duration) store.Comment {
	return store.Comment{
		ID:          id,
		Message:     message,
		AuthorID:    "user_1",
		AuthorName:  "Alice",
		CreatedTime: dispatchBase.Add(offset),
	}
}

func TestDispatchOldestFirstWithCap(t *testing.T) {
	poster := &fakePoster{}
	snap := &store.Snapshot{Comments: []store.Comment{
		dispatchComment("c3", "third", 2*time.Minute),
		dispatchComment("c1", "first", 0),
		dispatchComment("c2", "second", time.Minute),
	}}

	stats := Dispatch(context.Background(), poster, snap, "tok", "page_1", 2)

	assert.Equal(t, 2, stats.Replied)
	assert.Equal(t, []string{"c1", "c2"}, poster.calls)
}

func TestDispatchEligibility(t *testing.T) {
	poster := &fakePoster{}
	negative := dispatchComment("c2", "this is awful", time.Minute)
	negative.Sentiment = &store.Sentiment{Label: store.SentimentNegative}
	replied := dispatchComment("c3", "already handled", 2*time.Minute)
	replied.Replied = true
	ownComment := dispatchComment("c4", "thanks everyone", 3*time.Minute)
	ownComment.AuthorID = "page_1"

	snap := &store.Snapshot{Comments: []store.Comment{
		dispatchComment("c1", "eligible", 0),
		negative,
		replied,
		ownComment,
		dispatchComment("c5", "", 4*time.Minute),
	}}

	stats := Dispatch(context.Background(), poster, snap, "tok", "page_1", 0)

	assert.Equal(t, 1, stats.Replied)
	assert.Equal(t, []string{"c1"}, poster.calls)
	assert.Equal(t, 1, stats.TotalConsidered)
}

func TestDispatchMarksRepliedComments(t *testing.T) {
	poster := &fakePoster{}
	snap := &store.Snapshot{Comments: []store.Comment{
		dispatchComment("c1", "What is the price?", 0),
	}}

	stats := Dispatch(context.Background(), poster, snap, "tok", "page_1", 0)

	require.Equal(t, 1, stats.Replied)
	got := snap.Comments[0]
	assert.True(t, got.Replied)
	assert.Equal(t, "reply_1", got.ReplyID)
	require.NotNil(t, got.RepliedAt)
	assert.Equal(t, 1, stats.ReplyTypes[TypeQuestion])
}

func TestDispatchCapCountsAttemptsNotSuccesses(t *testing.T) {
	poster := &fakePoster{failOn: map[string]error{
		"c1": &facebook.RemoteError{Transient: true, Status: 503, Message: "try later"},
		"c2": &facebook.RemoteError{Transient: true, Status: 503, Message: "try later"},
	}}
	snap := &store.Snapshot{Comments: []store.Comment{
		dispatchComment("c1", "one", 0),
		dispatchComment("c2", "two", time.Minute),
		dispatchComment("c3", "three", 2*time.Minute),
	}}

	stats := Dispatch(context.Background(), poster, snap, "tok", "page_1", 1)

	assert.Equal(t, []string{"c1"}, poster.calls, "a failed attempt still consumes the budget")
	assert.Equal(t, 1, stats.TotalConsidered)
	assert.Equal(t, 0, stats.Replied)
	assert.Equal(t, 1, stats.Failed)
}

func TestDispatchFailureContinues(t *testing.T) {
	poster := &fakePoster{failOn: map[string]error{
		"c2": &facebook.RemoteError{Transient: true, Status: 503, Message: "try later"},
	}}
	snap := &store.Snapshot{Comments: []store.Comment{
		dispatchComment("c1", "one", 0),
		dispatchComment("c2", "two", time.Minute),
		dispatchComment("c3", "three", 2*time.Minute),
	}}

	stats := Dispatch(context.Background(), poster, snap, "tok", "page_1", 0)

	assert.Equal(t, 2, stats.Replied)
	assert.Equal(t, 1, stats.Failed)
	assert.False(t, snap.Comments[1].Replied)
}

func TestDispatchPrunesGoneComments(t *testing.T) {
	poster := &fakePoster{failOn: map[string]error{
		"c1": &facebook.RemoteError{Status: 400, Code: 100, Subcode: 33, Message: "object does not exist"},
	}}
	snap := &store.Snapshot{Comments: []store.Comment{
		dispatchComment("c1", "deleted upstream", 0),
		dispatchComment("c2", "still here", time.Minute),
	}}

	stats := Dispatch(context.Background(), poster, snap, "tok", "page_1", 0)

	assert.Equal(t, 1, stats.Orphaned)
	assert.Equal(t, 1, stats.Replied)
	assert.Equal(t, 1, snap.TotalComments)
	assert.Equal(t, "c2", snap.Comments[0].ID)
}

func TestDispatchIsDeterministic(t *testing.T) {
	build := func() *store.Snapshot {
		return &store.Snapshot{Comments: []store.Comment{
			dispatchComment("b", "same instant", 0),
			dispatchComment("a", "same instant", 0),
		}}
	}

	p1, p2 := &fakePoster{}, &fakePoster{}
	Dispatch(context.Background(), p1, build(), "tok", "page_1", 0)
	Dispatch(context.Background(), p2, build(), "tok", "page_1", 0)

	assert.Equal(t, p1.calls, p2.calls)
	assert.Equal(t, []string{"a", "b"}, p1.calls)
}
