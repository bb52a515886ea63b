package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternbury/commentsync/internal/store"
)

const (
	defaultGraphURL = "https://graph.facebook.com"
	defaultVersion  = "v21.0"

	commentFields = "id,message,created_time,from,like_count,comment_count"
	pageSize      = 25
)

// Graph comment timestamps look like 2024-03-05T17:32:11+0000.
const graphTimeLayout = "2006-01-02T15:04:05-0700"

// Client wraps the Graph API endpoints this engine needs. A call touches no
// local state; one FetchComments call returns exactly one page so the caller
// controls pagination and rate-limit accounting.
type Client struct {
	graphURL   string
	version    string
	httpClient *http.Client
}

func NewClient(timeout time.Duration, version string) *Client {
	if version == "" {
		version = defaultVersion
	}
	return &Client{
		graphURL: defaultGraphURL,
		version:  version,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWithBaseURL points the client at an alternate Graph host. Tests
// use it to talk to a local server.
func NewClientWithBaseURL(baseURL string, timeout time.Duration, version string) *Client {
	c := NewClient(timeout, version)
	c.graphURL = strings.TrimSuffix(baseURL, "/")
	return c
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/%s/%s", c.graphURL, c.version, strings.TrimPrefix(path, "/"))
}

// FetchComments returns one page of comments for a post plus the cursor for
// the next page, empty when the thread is exhausted.
func (c *Client) FetchComments(ctx context.Context, postID, token, after string) ([]store.Comment, string, error) {
	params := url.Values{}
	params.Set("fields", commentFields)
	params.Set("limit", fmt.Sprint(pageSize))
	params.Set("access_token", token)
	if after != "" {
		params.Set("after", after)
	}

	body, err := c.get(ctx, c.endpoint(postID+"/comments")+"?"+params.Encode())
	if err != nil {
		return nil, "", err
	}

	var feed commentsFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, "", &RemoteError{Transient: false, Message: fmt.Sprintf("unexpected comments payload: %v", err)}
	}

	comments := make([]store.Comment, 0, len(feed.Data))
	for _, item := range feed.Data {
		if item.ID == "" {
			log.Printf("Facebook: skipping comment without id on post %s", postID)
			continue
		}
		created, err := time.Parse(graphTimeLayout, item.CreatedTime)
		if err != nil {
			created = time.Time{}
		}
		comments = append(comments, store.Comment{
			ID:          item.ID,
			PostID:      postID,
			AuthorID:    item.From.ID,
			AuthorName:  item.From.Name,
			Message:     item.Message,
			CreatedTime: created,
			LikeCount:   item.LikeCount,
			ReplyCount:  item.CommentCount,
		})
	}

	next := ""
	if feed.Paging.Next != "" {
		next = feed.Paging.Cursors.After
	}
	return comments, next, nil
}

// PostReply publishes a reply under a comment and returns the new reply id.
func (c *Client) PostReply(ctx context.Context, commentID, message, token string) (string, error) {
	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint(commentID+"/comments"), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("error creating reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var resp idResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.ID == "" {
		return "", &RemoteError{Transient: false, Message: "reply response missing id"}
	}
	return resp.ID, nil
}

// DeleteComment removes a comment from the platform.
func (c *Client) DeleteComment(ctx context.Context, commentID, token string) error {
	params := url.Values{}
	params.Set("access_token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.endpoint(commentID)+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("error creating delete request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return err
	}

	var resp successResponse
	if err := json.Unmarshal(body, &resp); err != nil || !resp.Success {
		return &RemoteError{Transient: false, Message: "delete not confirmed by platform"}
	}
	return nil
}

// ValidateToken probes GET /me and returns the principal behind the token.
func (c *Client) ValidateToken(ctx context.Context, token string) (*Profile, error) {
	params := url.Values{}
	params.Set("fields", "id,name,category")
	params.Set("access_token", token)

	body, err := c.get(ctx, c.endpoint("me")+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var prof Profile
	if err := json.Unmarshal(body, &prof); err != nil {
		return nil, &RemoteError{Transient: false, Message: fmt.Sprintf("unexpected profile payload: %v", err)}
	}
	return &prof, nil
}

// GetPermissions lists the permission names granted to the token.
func (c *Client) GetPermissions(ctx context.Context, token string) ([]string, error) {
	params := url.Values{}
	params.Set("access_token", token)

	body, err := c.get(ctx, c.endpoint("me/permissions")+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp permissionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &RemoteError{Transient: false, Message: fmt.Sprintf("unexpected permissions payload: %v", err)}
	}

	var granted []string
	for _, p := range resp.Data {
		if p.Status == "granted" {
			granted = append(granted, p.Permission)
		}
	}
	return granted, nil
}

// ListPagePosts returns recent posts for a page, newest first.
func (c *Client) ListPagePosts(ctx context.Context, pageID, token string) ([]PagePost, error) {
	params := url.Values{}
	params.Set("fields", "id,message,created_time")
	params.Set("limit", fmt.Sprint(pageSize))
	params.Set("access_token", token)

	body, err := c.get(ctx, c.endpoint(pageID+"/posts")+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var feed postsFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, &RemoteError{Transient: false, Message: fmt.Sprintf("unexpected posts payload: %v", err)}
	}

	posts := make([]PagePost, 0, len(feed.Data))
	for _, item := range feed.Data {
		posts = append(posts, PagePost(item))
	}
	return posts, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	return c.do(req)
}

// do executes the request and classifies failures. Network errors and 5xx
// responses are transient; a 4xx with a Graph error payload is rejected
// unless the error code is one of the rate-limit codes.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteError{Transient: true, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteError{Transient: true, Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RemoteError{Transient: true, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var ge graphErrorResponse
	if err := json.Unmarshal(body, &ge); err != nil || ge.Error.Message == "" {
		return nil, &RemoteError{Transient: false, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	return nil, &RemoteError{
		Transient: isRateLimitCode(ge.Error.Code),
		Status:    resp.StatusCode,
		Code:      ge.Error.Code,
		Subcode:   ge.Error.ErrorSubcode,
		Message:   ge.Error.Message,
	}
}
