package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewgate/internal/app/dto"
)

func (h *Handler) PRList(c *gin.Context) {
	prs, err := h.PRSvc.List(c.Request.Context(), c.Query("repo_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pull_requests": dto.FromPullRequests(prs)})
}

func (h *Handler) PRGet(c *gin.Context) {
	p, err := h.PRSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pull_request": dto.FromPullRequest(p)})
}

// PRRetrigger re-runs review generation for the PR's current head.
func (h *Handler) PRRetrigger(c *gin.Context) {
	rev, err := h.Coordinator.Retrigger(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if rev == nil {
		c.JSON(http.StatusOK, gin.H{"status": "pull request not open, pending reviews discarded"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"review": dto.FromReview(*rev)})
}
