package facebook

import (
	"errors"
	"fmt"
)

// commentsFeed is the wire shape of GET /{post_id}/comments.
type commentsFeed struct {
	Data []struct {
		ID          string `json:"id"`
		Message     string `json:"message"`
		CreatedTime string `json:"created_time"`
		From        struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"from"`
		LikeCount    int `json:"like_count"`
		CommentCount int `json:"comment_count"`
	} `json:"data"`
	Paging struct {
		Cursors struct {
			Before string `json:"before"`
			After  string `json:"after"`
		} `json:"cursors"`
		Next string `json:"next,omitempty"`
	} `json:"paging"`
}

type postsFeed struct {
	Data []struct {
		ID          string `json:"id"`
		Message     string `json:"message"`
		CreatedTime string `json:"created_time"`
	} `json:"data"`
}

type idResponse struct {
	ID string `json:"id"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// Profile is the result of a GET /me probe.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	AppType  string `json:"app_type"`
}

type permissionsResponse struct {
	Data []struct {
		Permission string `json:"permission"`
		Status     string `json:"status"`
	} `json:"data"`
}

// PagePost is one entry from GET /{page_id}/posts.
type PagePost struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	CreatedTime string `json:"created_time"`
}

type graphErrorResponse struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
	} `json:"error"`
}

// RemoteError classifies a failed Graph API call. Transient errors (network,
// timeout, 5xx, rate limit) are worth retrying with backoff; rejected errors
// carry the platform's code and message and will not succeed on retry.
type RemoteError struct {
	Transient bool
	Status    int
	Code      int
	Subcode   int
	Message   string
}

func (e *RemoteError) Error() string {
	if e.Transient {
		return fmt.Sprintf("facebook transient error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("facebook rejected request (status %d, code %d): %s", e.Status, e.Code, e.Message)
}

// IsTransient reports whether err is a retryable remote failure.
func IsTransient(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Transient
}

// IsRejected reports whether err is a non-retryable platform rejection.
func IsRejected(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && !re.Transient
}

// IsCommentGone reports whether err indicates the target comment no longer
// exists on the platform (deleted or hidden). Code 100 is "invalid parameter",
// 803 is "alias does not exist", subcode 33 is "object does not exist".
func IsCommentGone(err error) bool {
	var re *RemoteError
	if !errors.As(err, &re) || re.Transient {
		return false
	}
	if re.Code == 100 || re.Code == 803 || re.Subcode == 33 {
		return true
	}
	return false
}

// Rate-limit codes the Graph API returns with a 4xx status. These succeed
// after backing off, so they classify as transient.
func isRateLimitCode(code int) bool {
	switch code {
	case 4, 17, 32, 613:
		return true
	}
	return false
}
