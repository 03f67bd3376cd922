package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewgate/internal/app/dto"
)

func (h *Handler) StatsDashboard(c *gin.Context) {
	d, err := h.StatsSvc.GetDashboard(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDashboard(d))
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
