package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reviewgate/internal/app/dto"
	"reviewgate/internal/domain/delivery"
	"reviewgate/internal/domain/dispatch"
)

const maxWebhookBody = 5 << 20

// Webhook receives GitHub deliveries. Signature check and dedup run inline;
// review generation is handed to the worker pool so GitHub gets its answer
// within the delivery timeout.
func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.badRequest(c, "unreadable body")
		return
	}

	event := c.GetHeader("X-GitHub-Event")
	if event == "ping" {
		c.JSON(http.StatusOK, gin.H{"status": "pong"})
		return
	}
	if event != "pull_request" {
		c.JSON(http.StatusAccepted, gin.H{"status": "ignored", "event": event})
		return
	}

	var payload dto.PullRequestEvent
	if err := json.Unmarshal(body, &payload); err != nil {
		h.badRequest(c, "invalid JSON payload")
		return
	}

	reg, err := h.RepoSvc.GetByFullName(c.Request.Context(), payload.Repository.FullName)
	if err != nil {
		h.writeError(c, err)
		return
	}

	signature := c.GetHeader(h.Verifier.Header())
	if err := h.Verifier.Verify(body, signature, reg.WebhookSecret); err != nil {
		h.Log.Warn("webhook signature rejected",
			zap.String("repo", reg.FullName()),
			zap.Error(err),
		)
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: dto.Error{Code: "UNAUTHORIZED", Message: "signature verification failed"},
		})
		return
	}

	guid := c.GetHeader("X-GitHub-Delivery")
	if guid != "" {
		first, err := h.Deliveries.Record(c.Request.Context(), delivery.Delivery{
			GUID:     guid,
			Event:    event,
			Action:   payload.Action,
			RepoFull: reg.FullName(),
		})
		if err != nil {
			h.writeError(c, err)
			return
		}
		if !first {
			c.JSON(http.StatusOK, gin.H{"status": "duplicate", "delivery": guid})
			return
		}
	}

	ev := dispatch.PREvent{
		Action: payload.Action,
		Repo:   reg,
		PR:     payload.ToPullRequest(reg.ID),
	}

	h.Pool.Submit(func(ctx context.Context) {
		if _, err := h.Coordinator.HandleEvent(ctx, ev); err != nil {
			h.Log.Error("webhook processing failed",
				zap.String("repo", reg.FullName()),
				zap.Int("number", ev.PR.Number),
				zap.String("head_sha", ev.PR.HeadSHA),
				zap.Error(err),
			)
		}
	})

	c.JSON(http.StatusAccepted, gin.H{
		"status":      "accepted",
		"delivery":    guid,
		"received_at": time.Now().UTC().Format(time.RFC3339),
	})
}
