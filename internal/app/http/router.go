package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reviewgate/internal/app/http/handler"
	"reviewgate/internal/app/http/middleware"
)

func NewRouter(h *handler.Handler, instructors []string, log *zap.Logger) *gin.Engine {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		middleware.ZapLogger(log),
		middleware.ZapRecovery(log),
	)

	r.GET("/health", h.Health)

	r.POST("/webhooks/github", h.Webhook)

	reviews := r.Group("/reviews")
	{
		reviews.GET("", h.ReviewList)
		reviews.GET("/:id", h.ReviewGet)

		decisions := reviews.Group("", middleware.InstructorAuth(instructors))
		decisions.POST("/:id/approve", h.ReviewApprove)
		decisions.POST("/:id/reject", h.ReviewReject)
		decisions.POST("/:id/retry-post", h.ReviewRetryPost)
	}

	prs := r.Group("/pull-requests")
	{
		prs.GET("", h.PRList)
		prs.GET("/:id", h.PRGet)
		prs.POST("/:id/review", h.PRRetrigger)
	}

	repos := r.Group("/repositories")
	{
		repos.GET("", h.RepoList)
		repos.POST("", h.RepoRegister)
	}

	r.GET("/stats/dashboard", h.StatsDashboard)

	return r
}
