package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewgate/internal/app/dto"
	"reviewgate/internal/app/http/middleware"
	"reviewgate/internal/domain/review"
)

func (h *Handler) ReviewGet(c *gin.Context) {
	rev, err := h.ReviewSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": dto.FromReview(rev)})
}

func (h *Handler) ReviewList(c *gin.Context) {
	filter := review.ListFilter{
		PullRequestID: c.Query("pull_request_id"),
		Status:        review.Status(c.Query("status")),
	}

	reviews, err := h.ReviewSvc.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": dto.FromReviews(reviews)})
}

type decisionBody struct {
	Comment string `json:"comment"`
}

func (h *Handler) ReviewApprove(c *gin.Context) {
	var body decisionBody
	if err := c.ShouldBindJSON(&body); err != nil && c.Request.ContentLength > 0 {
		h.badRequest(c, "invalid JSON")
		return
	}

	rev, err := h.Coordinator.Approve(
		c.Request.Context(), c.Param("id"), middleware.InstructorFrom(c), body.Comment)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": dto.FromReview(rev)})
}

func (h *Handler) ReviewReject(c *gin.Context) {
	var body decisionBody
	if err := c.ShouldBindJSON(&body); err != nil && c.Request.ContentLength > 0 {
		h.badRequest(c, "invalid JSON")
		return
	}

	rev, err := h.Coordinator.Reject(
		c.Request.Context(), c.Param("id"), middleware.InstructorFrom(c), body.Comment)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": dto.FromReview(rev)})
}

func (h *Handler) ReviewRetryPost(c *gin.Context) {
	rev, err := h.Coordinator.RetryPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": dto.FromReview(rev)})
}
