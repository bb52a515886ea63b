package facebook

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithBaseURL(srv.URL, 5*time.Second, "v21.0"), srv
}

func TestFetchCommentsSinglePage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v21.0/post_1/comments" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("access_token"); got != "tok" {
			t.Errorf("expected token in query, got %q", got)
		}
		fmt.Fprint(w, `{
			"data": [
				{"id": "c1", "message": "hello", "created_time": "2024-03-05T17:32:11+0000",
				 "from": {"id": "u1", "name": "Alice"}, "like_count": 3, "comment_count": 1},
				{"id": "", "message": "no id"}
			],
			"paging": {"cursors": {"before": "b", "after": "a"}}
		}`)
	}))

	comments, next, err := client.FetchComments(context.Background(), "post_1", "tok", "")
	if err != nil {
		t.Fatalf("FetchComments: %v", err)
	}
	if next != "" {
		t.Errorf("expected no next cursor without paging.next, got %q", next)
	}
	if len(comments) != 1 {
		t.Fatalf("expected 1 comment (record without id dropped), got %d", len(comments))
	}
	c := comments[0]
	if c.ID != "c1" || c.AuthorName != "Alice" || c.LikeCount != 3 || c.ReplyCount != 1 {
		t.Errorf("unexpected comment: %+v", c)
	}
	want := time.Date(2024, 3, 5, 17, 32, 11, 0, time.UTC)
	if !c.CreatedTime.Equal(want) {
		t.Errorf("expected created time %v, got %v", want, c.CreatedTime)
	}
}

func TestFetchCommentsPagination(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Query().Get("after") {
		case "":
			fmt.Fprint(w, `{"data": [{"id": "c1", "created_time": "2024-03-05T17:32:11+0000"}],
				"paging": {"cursors": {"after": "cursor_2"}, "next": "https://next.page"}}`)
		case "cursor_2":
			fmt.Fprint(w, `{"data": [{"id": "c2", "created_time": "2024-03-05T17:33:11+0000"}],
				"paging": {"cursors": {"after": "cursor_3"}}}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("after"))
		}
	}))

	var all []string
	after := ""
	for {
		batch, next, err := client.FetchComments(context.Background(), "post_1", "tok", after)
		if err != nil {
			t.Fatalf("FetchComments: %v", err)
		}
		for _, c := range batch {
			all = append(all, c.ID)
		}
		if next == "" {
			break
		}
		after = next
	}

	if calls != 2 {
		t.Errorf("expected 2 page fetches, got %d", calls)
	}
	if len(all) != 2 || all[0] != "c1" || all[1] != "c2" {
		t.Errorf("unexpected comment ids: %v", all)
	}
}

func TestDoClassifiesRejection(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "Invalid OAuth access token", "type": "OAuthException", "code": 190}}`)
	}))

	_, _, err := client.FetchComments(context.Background(), "post_1", "bad", "")
	if !IsRejected(err) {
		t.Fatalf("expected rejected error, got %v", err)
	}
	re := err.(*RemoteError)
	if re.Code != 190 {
		t.Errorf("expected code 190, got %d", re.Code)
	}
}

func TestDoClassifies5xxAsTransient(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, _, err := client.FetchComments(context.Background(), "post_1", "tok", "")
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestDoClassifiesRateLimitAsTransient(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "Application request limit reached", "code": 4}}`)
	}))

	_, _, err := client.FetchComments(context.Background(), "post_1", "tok", "")
	if !IsTransient(err) {
		t.Fatalf("expected rate limit to classify as transient, got %v", err)
	}
}

func TestPostReply(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v21.0/c1/comments" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if got := r.PostForm.Get("message"); got != "thanks!" {
			t.Errorf("expected message in form, got %q", got)
		}
		fmt.Fprint(w, `{"id": "reply_1"}`)
	}))

	id, err := client.PostReply(context.Background(), "c1", "thanks!", "tok")
	if err != nil {
		t.Fatalf("PostReply: %v", err)
	}
	if id != "reply_1" {
		t.Errorf("expected reply_1, got %q", id)
	}
}

func TestDeleteComment(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/v21.0/c1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, `{"success": true}`)
	}))

	if err := client.DeleteComment(context.Background(), "c1", "tok"); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
}

func TestIsCommentGone(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&RemoteError{Code: 100}, true},
		{&RemoteError{Code: 803}, true},
		{&RemoteError{Subcode: 33}, true},
		{&RemoteError{Code: 190}, false},
		{&RemoteError{Transient: true, Code: 100}, false},
		{nil, false},
	}
	for i, tc := range cases {
		if got := IsCommentGone(tc.err); got != tc.want {
			t.Errorf("case %d: IsCommentGone(%v) = %v, want %v", i, tc.err, got, tc.want)
		}
	}
}

func TestValidateTokenAndPermissions(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v21.0/me":
			fmt.Fprint(w, `{"id": "page_1", "name": "My Page", "category": "Retail"}`)
		case "/v21.0/me/permissions":
			fmt.Fprint(w, `{"data": [
				{"permission": "pages_read_engagement", "status": "granted"},
				{"permission": "pages_manage_posts", "status": "declined"}
			]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	prof, err := client.ValidateToken(context.Background(), "tok")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if prof.ID != "page_1" || prof.Category != "Retail" {
		t.Errorf("unexpected profile: %+v", prof)
	}

	perms, err := client.GetPermissions(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetPermissions: %v", err)
	}
	if len(perms) != 1 || perms[0] != "pages_read_engagement" {
		t.Errorf("expected only granted permissions, got %v", perms)
	}
}
