package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewgate/internal/app/dto"
	"reviewgate/internal/domain/review"
)

const instructorKey = "instructor"

// InstructorAuth resolves the caller's instructor claim from the
// X-Instructor-Login header against the configured allow list. Real session
// auth lives outside this service; the claim is treated as opaque.
func InstructorAuth(allowed []string) gin.HandlerFunc {
	set := make(map[string]struct{}, len(allowed))
	for _, login := range allowed {
		set[login] = struct{}{}
	}

	return func(c *gin.Context) {
		login := c.GetHeader("X-Instructor-Login")
		if login == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: dto.Error{Code: "UNAUTHORIZED", Message: "X-Instructor-Login header is required"},
			})
			return
		}

		_, canApprove := set[login]
		c.Set(instructorKey, review.Instructor{Login: login, CanApprove: canApprove})
		c.Next()
	}
}

// InstructorFrom returns the claim stored by InstructorAuth. Zero value when
// the middleware did not run.
func InstructorFrom(c *gin.Context) review.Instructor {
	v, ok := c.Get(instructorKey)
	if !ok {
		return review.Instructor{}
	}
	inst, _ := v.(review.Instructor)
	return inst
}
