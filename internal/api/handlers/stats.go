package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) SentimentStatsHandler(c *gin.Context) {
	out, err := h.Stats.Sentiment(c.Request.Context())
	if err != nil {
		log.Printf("Handler: sentiment stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "could not compute sentiment stats",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"stats":  out,
	})
}

func (h *Handler) ReplyStatsHandler(c *gin.Context) {
	out, err := h.Stats.Replies(c.Request.Context())
	if err != nil {
		log.Printf("Handler: reply stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "could not compute reply stats",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"stats":  out,
	})
}
