// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PostsHandler lists the registered content along with the page's live
// posts when remote=true.
func (h *Handler) PostsHandler(c *gin.Context) {
	posts, err := h.Store.ListPostedContent(c.Request.Context())
	if err != nil {
		log.Printf("Handler: listing posted content: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "could not read posted content",
		})
		return
	}

	resp := gin.H{
		"status": "ok",
		"posts":  posts,
	}

	if c.Query("remote") == "true" {
		cred, err := h.resolveCredential(c)
		if err != nil {
			return
		}
		pageID := cred.PageID
		if pageID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "no page id configured for remote listing",
			})
			return
		}
		remote, err := h.Graph.ListPagePosts(c.Request.Context(), pageID, cred.Token)
		if err != nil {
			log.Printf("Handler: listing page posts: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{
				"status":  "error",
				"message": err.Error(),
			})
			return
		}
		resp["remote_posts"] = remote
	}

	c.JSON(http.StatusOK, resp)
}
