package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ternbury/commentsync/internal/creds"
	"github.com/ternbury/commentsync/internal/facebook"
	"github.com/ternbury/commentsync/internal/store"
	"github.com/ternbury/commentsync/internal/worker"
)

// FetchCommentsHandler runs the sync pipeline for one piece of content. The
// post id comes from the registered content; query params select the
// optional stages.
func (h *Handler) FetchCommentsHandler(c *gin.Context) {
	contentID, err := uuid.Parse(c.Param("content_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "invalid content id",
		})
		return
	}

	post, ok := h.findPost(c, contentID)
	if !ok {
		return
	}

	cred, err := h.resolveCredential(c)
	if err != nil {
		return
	}

	opts := worker.Options{
		Classify: c.Query("classify") != "false",
		Reply:    c.Query("reply") == "true",
		Force:    c.Query("force") == "true",
	}

	var outcome worker.PostOutcome
	outcome.PostID = post.PostID
	outcome.ContentID = contentID.String()

	if err := worker.SyncPost(c.Request.Context(), h.Store, h.Graph, h.Analyzer, h.Config, cred, post, opts, &outcome); err != nil {
		log.Printf("Handler: fetch for content %s failed: %v", contentID, err)
		status := http.StatusBadGateway
		if !facebook.IsTransient(err) && !facebook.IsRejected(err) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}
	outcome.Status = worker.StatusOK

	snap, err := h.Store.GetSnapshot(c.Request.Context(), contentID, post.PostID)
	if err != nil {
		log.Printf("Handler: reading back snapshot for content %s: %v", contentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "sync succeeded but snapshot read failed",
		})
		return
	}

	h.Stats.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"result":   outcome,
		"snapshot": snap,
	})
}

// GetCommentsHandler returns the stored snapshots for a piece of content
// without touching the platform.
func (h *Handler) GetCommentsHandler(c *gin.Context) {
	contentID, err := uuid.Parse(c.Param("content_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "invalid content id",
		})
		return
	}

	snaps, err := h.Store.GetSnapshotsByContent(c.Request.Context(), contentID)
	if err != nil {
		log.Printf("Handler: reading snapshots for content %s: %v", contentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "could not read stored comments",
		})
		return
	}
	if len(snaps) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "error",
			"message": "no snapshots for this content",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"snapshots": snaps,
	})
}

// ReplyHandler posts a manual reply to a single comment.
func (h *Handler) ReplyHandler(c *gin.Context) {
	commentID := c.Param("comment_id")

	var body struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "message is required",
		})
		return
	}

	cred, err := h.resolveCredential(c)
	if err != nil {
		return
	}

	replyID, err := h.Graph.PostReply(c.Request.Context(), commentID, body.Message, cred.Token)
	if err != nil {
		if facebook.IsCommentGone(err) {
			c.JSON(http.StatusGone, gin.H{
				"status":  "error",
				"message": "comment no longer exists",
			})
			return
		}
		log.Printf("Handler: reply to %s failed: %v", commentID, err)
		c.JSON(http.StatusBadGateway, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"reply_id": replyID,
	})
}

// DeleteCommentHandler removes a comment on the platform.
func (h *Handler) DeleteCommentHandler(c *gin.Context) {
	commentID := c.Param("comment_id")

	cred, err := h.resolveCredential(c)
	if err != nil {
		return
	}

	if err := h.Graph.DeleteComment(c.Request.Context(), commentID, cred.Token); err != nil {
		if facebook.IsCommentGone(err) {
			c.JSON(http.StatusGone, gin.H{
				"status":  "error",
				"message": "comment no longer exists",
			})
			return
		}
		log.Printf("Handler: delete of %s failed: %v", commentID, err)
		c.JSON(http.StatusBadGateway, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) findPost(c *gin.Context, contentID uuid.UUID) (store.PostedContent, bool) {
	posts, err := h.Store.ListPostedContent(c.Request.Context())
	if err != nil {
		log.Printf("Handler: listing posted content: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "could not read posted content",
		})
		return store.PostedContent{}, false
	}
	for _, p := range posts {
		if p.ID == contentID {
			return p, true
		}
	}
	c.JSON(http.StatusNotFound, gin.H{
		"status":  "error",
		"message": "unknown content id",
	})
	return store.PostedContent{}, false
}

// resolveCredential loads the token and writes the error response itself on
// failure, so callers just return on a non-nil error.
func (h *Handler) resolveCredential(c *gin.Context) (*creds.Credential, error) {
	cred, err := creds.Resolve(h.Config.CredentialsFile, h.Config.PageID)
	if err != nil {
		var ce *creds.CredentialError
		if errors.As(err, &ce) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": ce.Error(),
			})
			return nil, err
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return nil, err
	}
	return cred, nil
}
