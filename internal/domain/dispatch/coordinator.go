package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"reviewgate/internal/domain"
	"reviewgate/internal/domain/engine"
	"reviewgate/internal/domain/pullreq"
	"reviewgate/internal/domain/repo"
	"reviewgate/internal/domain/review"
	"reviewgate/internal/domain/rules"
)

// Diff is what the GitHub diff-fetch collaborator returns for one PR head.
type Diff struct {
	Files   []engine.FileChange
	Patch   string
	Commits []engine.Commit
}

// DiffFetcher is the black-box GitHub read side.
type DiffFetcher interface {
	FetchDiff(ctx context.Context, r repo.Repository, number int, headSHA string) (Diff, error)
}

// Publisher is the black-box GitHub write side.
type Publisher interface {
	PostComment(ctx context.Context, r repo.Repository, number int, body string) (int64, error)
}

// PRFetcher reads a PR's current state. Optional; the manual re-trigger uses
// it to pick up the head SHA without waiting for a webhook.
type PRFetcher interface {
	GetPullRequest(ctx context.Context, r repo.Repository, number int) (pullreq.PullRequest, error)
}

// PREvent is a normalized pull request event, already verified and parsed
// by the transport layer.
type PREvent struct {
	Action string
	Repo   repo.Repository
	PR     pullreq.PullRequest
}

// Config bounds the coordinator's collaborator calls.
type Config struct {
	DiffTimeout    time.Duration
	PublishTimeout time.Duration
	RetryAttempts  uint64
	RetryBase      time.Duration
}

func (c Config) withDefaults() Config {
	if c.DiffTimeout <= 0 {
		c.DiffTimeout = 10 * time.Second
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 10 * time.Second
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 200 * time.Millisecond
	}
	return c
}

// Coordinator drives a PR event through classification, rule resolution,
// review generation and persistence, and later drives approved reviews
// through the publish attempt. Identical concurrent events collapse into
// one execution; all work for a single PR is totally ordered.
type Coordinator struct {
	uow        domain.UnitOfWork
	prs        pullreq.Service
	reviews    review.Service
	reviewRepo review.Repository
	repos      repo.Service
	rules      *rules.Snapshot
	generator  engine.Generator
	diffs      DiffFetcher
	publisher  Publisher
	prFetcher  PRFetcher
	events     domain.EventBus
	log        *zap.Logger
	cfg        Config

	flight  singleflight.Group
	prLocks *keyedMutex
}

func NewCoordinator(
	uow domain.UnitOfWork,
	prs pullreq.Service,
	reviews review.Service,
	reviewRepo review.Repository,
	repos repo.Service,
	snap *rules.Snapshot,
	generator engine.Generator,
	diffs DiffFetcher,
	publisher Publisher,
	prFetcher PRFetcher,
	events domain.EventBus,
	log *zap.Logger,
	cfg Config,
) *Coordinator {
	return &Coordinator{
		uow:        uow,
		prs:        prs,
		reviews:    reviews,
		reviewRepo: reviewRepo,
		repos:      repos,
		rules:      snap,
		generator:  generator,
		diffs:      diffs,
		publisher:  publisher,
		prFetcher:  prFetcher,
		events:     events,
		log:        log,
		cfg:        cfg.withDefaults(),
		prLocks:    newKeyedMutex(),
	}
}

func prKey(repoID string, number int) string {
	return fmt.Sprintf("%s#%d", repoID, number)
}

func flightKey(repoID string, number int, sha string) string {
	return fmt.Sprintf("%s#%d#%s", repoID, number, sha)
}

// HandleEvent processes one PR event. For open PRs it produces (or returns
// the already existing) review for the event's head SHA. For closed or
// merged PRs it only discards pending reviews and returns nil.
func (c *Coordinator) HandleEvent(ctx context.Context, ev PREvent) (*review.Review, error) {
	pr, err := c.prs.Sync(ctx, ev.PR)
	if err != nil {
		return nil, err
	}

	if !pr.Open() {
		// Soft-archive: nothing left to review, pending artifacts are
		// superseded by the close.
		if _, err := c.reviews.DiscardStale(ctx, pr.ID, ""); err != nil {
			return nil, err
		}
		return nil, nil
	}

	key := flightKey(pr.RepoID, pr.Number, pr.HeadSHA)
	v, err, _ := c.flight.Do(key, func() (any, error) {
		return c.reviewHead(ctx, ev.Repo, pr)
	})
	if err != nil {
		return nil, err
	}
	r := v.(review.Review)
	return &r, nil
}

// reviewHead runs under singleflight; the per-PR lock then orders it
// against approvals, publishes and discards for the same PR.
func (c *Coordinator) reviewHead(ctx context.Context, r repo.Repository, pr pullreq.PullRequest) (review.Review, error) {
	lk := prKey(pr.RepoID, pr.Number)
	c.prLocks.Lock(lk)
	defer c.prLocks.Unlock(lk)

	// A newer head supersedes any pending review before we build the next one.
	if _, err := c.reviews.DiscardStale(ctx, pr.ID, pr.HeadSHA); err != nil {
		return review.Review{}, err
	}

	if existing, ok, err := c.reviewRepo.GetByPRAndSHA(ctx, pr.ID, pr.HeadSHA); err != nil {
		return review.Review{}, err
	} else if ok {
		return existing, nil
	}

	diff, err := c.fetchDiff(ctx, r, pr)
	if err != nil {
		return review.Review{}, err
	}

	category := c.rules.Classify(pr.SourceBranch)
	ruleSet := c.rules.Resolve(category)

	res, err := c.generator.Generate(ctx, engine.Input{
		Repo:         r.FullName(),
		Number:       pr.Number,
		Title:        pr.Title,
		Description:  pr.Description,
		SourceBranch: pr.SourceBranch,
		Category:     category,
		RuleSet:      ruleSet,
		Files:        diff.Files,
		Patch:        diff.Patch,
		Commits:      diff.Commits,
	})
	if err != nil {
		return review.Review{}, err
	}

	var created review.Review
	err = c.uow.WithinTx(ctx, func(ctx context.Context) error {
		created, err = c.reviewRepo.Create(ctx, review.Review{
			ID:            ulid.Make().String(),
			PullRequestID: pr.ID,
			HeadSHA:       pr.HeadSHA,
			Category:      category,
			Expectations:  ruleSet,
			Findings:      res.Findings,
			Remarks:       res.Remarks,
			Summary:       res.Summary,
			Score:         res.Score,
			Rating:        res.Rating,
			Verdict:       res.Verdict,
			Status:        review.StatusPending,
		})
		return err
	})
	if err != nil {
		return review.Review{}, err
	}

	c.log.Info("review generated",
		zap.String("review_id", created.ID),
		zap.String("pr_id", pr.ID),
		zap.String("category", string(category)),
		zap.Int("score", created.Score),
		zap.String("verdict", string(created.Verdict)),
	)
	if c.events != nil {
		c.events.Publish(ctx, domain.Event{
			Type: domain.EventReviewCreated,
			Payload: map[string]any{
				"review_id": created.ID,
				"pr_id":     pr.ID,
				"head_sha":  pr.HeadSHA,
			},
		})
	}

	return created, nil
}

func (c *Coordinator) fetchDiff(ctx context.Context, r repo.Repository, pr pullreq.PullRequest) (Diff, error) {
	var out Diff
	backoff := retry.WithMaxRetries(c.cfg.RetryAttempts, retry.NewExponential(c.cfg.RetryBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.DiffTimeout)
		defer cancel()

		d, err := c.diffs.FetchDiff(callCtx, r, pr.Number, pr.HeadSHA)
		if err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return Diff{}, err
	}
	return out, nil
}

// Approve runs the approve transition and immediately attempts the publish.
// A publish failure is not an error to the caller: the review comes back in
// POST_FAILED with the reason attached, retry-eligible.
func (c *Coordinator) Approve(ctx context.Context, reviewID string, instructor review.Instructor, comment string) (review.Review, error) {
	approved, err := c.reviews.Approve(ctx, reviewID, instructor, comment)
	if err != nil {
		return review.Review{}, err
	}
	return c.publish(ctx, approved)
}

func (c *Coordinator) Reject(ctx context.Context, reviewID string, instructor review.Instructor, comment string) (review.Review, error) {
	return c.reviews.Reject(ctx, reviewID, instructor, comment)
}

// RetryPost re-runs the publish for a review stuck in POST_FAILED.
func (c *Coordinator) RetryPost(ctx context.Context, reviewID string) (review.Review, error) {
	reopened, err := c.reviews.ReopenForPublish(ctx, reviewID)
	if err != nil {
		return review.Review{}, err
	}
	return c.publish(ctx, reopened)
}

// Retrigger re-runs review generation for the PR's current head SHA.
func (c *Coordinator) Retrigger(ctx context.Context, prID string) (*review.Review, error) {
	pr, err := c.prs.Get(ctx, prID)
	if err != nil {
		return nil, err
	}
	r, err := c.repos.Get(ctx, pr.RepoID)
	if err != nil {
		return nil, err
	}

	if c.prFetcher != nil {
		fresh, ferr := c.prFetcher.GetPullRequest(ctx, r, pr.Number)
		if ferr != nil {
			c.log.Warn("pr refresh failed, using stored head",
				zap.String("pr_id", pr.ID),
				zap.Error(ferr),
			)
		} else {
			pr = fresh
		}
	}

	return c.HandleEvent(ctx, PREvent{Action: "manual", Repo: r, PR: pr})
}

func (c *Coordinator) publish(ctx context.Context, rev review.Review) (review.Review, error) {
	pr, err := c.prs.Get(ctx, rev.PullRequestID)
	if err != nil {
		return review.Review{}, err
	}
	r, err := c.repos.Get(ctx, pr.RepoID)
	if err != nil {
		return review.Review{}, err
	}

	lk := prKey(pr.RepoID, pr.Number)
	c.prLocks.Lock(lk)
	defer c.prLocks.Unlock(lk)

	// A new head event may have discarded the review while we waited for
	// the lock; never post a superseded summary.
	cur, err := c.reviews.Get(ctx, rev.ID)
	if err != nil {
		return review.Review{}, err
	}
	if cur.Status != review.StatusApproved {
		c.log.Info("skipping publish, review no longer approved",
			zap.String("review_id", rev.ID),
			zap.String("status", string(cur.Status)),
		)
		return cur, nil
	}

	var commentID int64
	backoff := retry.WithMaxRetries(c.cfg.RetryAttempts, retry.NewExponential(c.cfg.RetryBase))

	pubErr := retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.PublishTimeout)
		defer cancel()

		id, err := c.publisher.PostComment(callCtx, r, pr.Number, rev.Summary)
		if err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		commentID = id
		return nil
	})

	// The status write must land even when the request context died during
	// the publish attempts, or the review is stranded in APPROVED (and a
	// posted comment would be re-posted on retry).
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.PublishTimeout)
	defer cancel()

	if pubErr != nil {
		c.log.Warn("publish failed",
			zap.String("review_id", rev.ID),
			zap.Error(pubErr),
		)
		// The review must never sit in APPROVED after an abandoned attempt.
		failed, ferr := c.reviews.MarkPostFailed(writeCtx, rev.ID, pubErr.Error())
		if ferr != nil {
			return review.Review{}, ferr
		}
		return failed, nil
	}

	return c.reviews.MarkPosted(writeCtx, rev.ID, commentID)
}

func isTransient(err error) bool {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.Code == domain.ErrorCodeTransient
	}
	return errors.Is(err, context.DeadlineExceeded)
}
