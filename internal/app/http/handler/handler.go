package handler

import (
	"go.uber.org/zap"

	"reviewgate/internal/domain/delivery"
	"reviewgate/internal/domain/dispatch"
	"reviewgate/internal/domain/pullreq"
	"reviewgate/internal/domain/repo"
	"reviewgate/internal/domain/review"
	"reviewgate/internal/domain/stats"
	"reviewgate/internal/infrastructure/async"
	"reviewgate/internal/infrastructure/webhook"
)

type Handler struct {
	Coordinator *dispatch.Coordinator
	ReviewSvc   review.Service
	PRSvc       pullreq.Service
	RepoSvc     repo.Service
	StatsSvc    stats.Service
	Deliveries  delivery.Store
	Verifier    *webhook.Verifier
	Pool        *async.WorkerPool
	Log         *zap.Logger
}

func New(
	coordinator *dispatch.Coordinator,
	reviewSvc review.Service,
	prSvc pullreq.Service,
	repoSvc repo.Service,
	statsSvc stats.Service,
	deliveries delivery.Store,
	verifier *webhook.Verifier,
	pool *async.WorkerPool,
	log *zap.Logger,
) *Handler {
	return &Handler{
		Coordinator: coordinator,
		ReviewSvc:   reviewSvc,
		PRSvc:       prSvc,
		RepoSvc:     repoSvc,
		StatsSvc:    statsSvc,
		Deliveries:  deliveries,
		Verifier:    verifier,
		Pool:        pool,
		Log:         log,
	}
}
