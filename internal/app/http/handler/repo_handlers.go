package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewgate/internal/app/dto"
	"reviewgate/internal/domain/repo"
)

func (h *Handler) RepoRegister(c *gin.Context) {
	var body struct {
		Owner         string `json:"owner"`
		Name          string `json:"name"`
		DefaultBranch string `json:"default_branch"`
		WebhookSecret string `json:"webhook_secret"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid JSON")
		return
	}
	if body.Owner == "" || body.Name == "" {
		h.badRequest(c, "owner and name are required")
		return
	}

	created, err := h.RepoSvc.Register(c.Request.Context(), repo.Repository{
		Owner:         body.Owner,
		Name:          body.Name,
		DefaultBranch: body.DefaultBranch,
		WebhookSecret: body.WebhookSecret,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"repository": dto.FromRepository(created)})
}

func (h *Handler) RepoList(c *gin.Context) {
	repos, err := h.RepoSvc.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"repositories": dto.FromRepositories(repos)})
}
