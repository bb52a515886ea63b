package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ternbury/commentsync/internal/worker"
)

type bulkSyncRequest struct {
	AnalyzeSentiment  *bool `json:"analyze_sentiment"`
	ForceReanalyze    bool  `json:"force_reanalyze"`
	AutoReply         *bool `json:"auto_reply"`
	MaxRepliesPerPost int   `json:"max_replies_per_post"`
}

// BulkSyncHandler runs the pipeline across every registered post and
// returns the per-post outcomes. The optional JSON body tunes the stages;
// set async=true to fire the run in the background instead of waiting.
func (h *Handler) BulkSyncHandler(c *gin.Context) {
	req := bulkSyncRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "invalid options body",
			})
			return
		}
	}

	opts := worker.Options{
		Classify:   req.AnalyzeSentiment == nil || *req.AnalyzeSentiment,
		Reply:      req.AutoReply == nil || *req.AutoReply,
		Force:      req.ForceReanalyze,
		MaxReplies: req.MaxRepliesPerPost,
	}

	if c.Query("async") == "true" {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("panic in manual sync trigger: %v", r)
				}
			}()
			worker.RunBulkSync(h.Store, h.Graph, h.Analyzer, h.Config, opts)
		}()
		c.JSON(http.StatusAccepted, gin.H{
			"status":  "ok",
			"message": "Sync triggered successfully",
		})
		return
	}

	summary, err := worker.BulkSync(c.Request.Context(), h.Store, h.Graph, h.Analyzer, h.Config, opts)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"status":  "error",
			"message": err.Error(),
			"summary": summary,
		})
		return
	}

	h.Stats.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"summary": summary,
	})
}
