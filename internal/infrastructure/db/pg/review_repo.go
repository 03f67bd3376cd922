package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"reviewgate/internal/domain"
	"reviewgate/internal/domain/engine"
	"reviewgate/internal/domain/review"
	"reviewgate/internal/domain/rules"
)

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `review_id, pull_request_id, head_sha, category,
	expectations, findings, remarks, summary, score, rating, verdict,
	status, failure_reason, github_comment_id, decided_by, decision_comment,
	created_at, decided_at, posted_at`

func (r *ReviewRepository) Create(ctx context.Context, rev review.Review) (review.Review, error) {
	expectations, err := json.Marshal(rev.Expectations)
	if err != nil {
		return review.Review{}, fmt.Errorf("marshal expectations: %w", err)
	}
	findings, err := json.Marshal(rev.Findings)
	if err != nil {
		return review.Review{}, fmt.Errorf("marshal findings: %w", err)
	}
	remarks, err := json.Marshal(rev.Remarks)
	if err != nil {
		return review.Review{}, fmt.Errorf("marshal remarks: %w", err)
	}

	row := queryRow(ctx, r.db, `
		INSERT INTO reviews (
			review_id, pull_request_id, head_sha, category,
			expectations, findings, remarks, summary, score, rating, verdict, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+reviewColumns,
		rev.ID, rev.PullRequestID, rev.HeadSHA, string(rev.Category),
		expectations, findings, remarks, rev.Summary, rev.Score,
		string(rev.Rating), string(rev.Verdict), string(rev.Status),
	)

	created, err := scanReview(row)
	if err != nil && isUniqueViolation(err) {
		return review.Review{}, domain.NewConflictError("active review already exists for this PR")
	}
	return created, err
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (review.Review, error) {
	row := queryRow(ctx, r.db,
		`SELECT `+reviewColumns+` FROM reviews WHERE review_id = $1`, id)
	return r.one(row)
}

func (r *ReviewRepository) LockByID(ctx context.Context, id string) (review.Review, error) {
	row := queryRow(ctx, r.db,
		`SELECT `+reviewColumns+` FROM reviews WHERE review_id = $1 FOR UPDATE`, id)
	return r.one(row)
}

func (r *ReviewRepository) one(row rowScanner) (review.Review, error) {
	rev, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return review.Review{}, domain.NewNotFoundError("review not found")
	}
	return rev, err
}

func (r *ReviewRepository) GetByPRAndSHA(ctx context.Context, prID, headSHA string) (review.Review, bool, error) {
	row := queryRow(ctx, r.db, `
		SELECT `+reviewColumns+`
		  FROM reviews
		 WHERE pull_request_id = $1 AND head_sha = $2
		 ORDER BY created_at DESC
		 LIMIT 1`,
		prID, headSHA)

	rev, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return review.Review{}, false, nil
	}
	if err != nil {
		return review.Review{}, false, err
	}
	return rev, true, nil
}

func (r *ReviewRepository) ListNonTerminalByPR(ctx context.Context, prID string) ([]review.Review, error) {
	rows, err := query(ctx, r.db, `
		SELECT `+reviewColumns+`
		  FROM reviews
		 WHERE pull_request_id = $1
		   AND status IN ('PENDING', 'APPROVED', 'POST_FAILED')
		 ORDER BY created_at`,
		prID)
	if err != nil {
		return nil, err
	}
	return collectReviews(rows)
}

func (r *ReviewRepository) List(ctx context.Context, f review.ListFilter) ([]review.Review, error) {
	rows, err := query(ctx, r.db, `
		SELECT `+reviewColumns+`
		  FROM reviews
		 WHERE ($1::text = '' OR pull_request_id = $1::text)
		   AND ($2::text = '' OR status = $2::text)
		 ORDER BY created_at DESC`,
		f.PullRequestID, string(f.Status))
	if err != nil {
		return nil, err
	}
	return collectReviews(rows)
}

// UpdateStatusCAS moves the status only when the row still holds the expected
// one. A miss is re-read to tell a terminal review from a concurrently moved
// one.
func (r *ReviewRepository) UpdateStatusCAS(ctx context.Context, id string, from, to review.Status, tr review.Transition) (review.Review, error) {
	row := queryRow(ctx, r.db, `
		UPDATE reviews
		   SET status            = $3,
		       decided_by        = COALESCE(NULLIF($4, ''), decided_by),
		       decision_comment  = COALESCE(NULLIF($5, ''), decision_comment),
		       decided_at        = COALESCE($6, decided_at),
		       posted_at         = COALESCE($7, posted_at),
		       github_comment_id = COALESCE($8, github_comment_id),
		       failure_reason    = $9
		 WHERE review_id = $1 AND status = $2
		 RETURNING `+reviewColumns,
		id, string(from), string(to),
		tr.DecidedBy, tr.DecisionComment, tr.DecidedAt, tr.PostedAt,
		tr.GithubCommentID, tr.FailureReason,
	)

	rev, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		current, gerr := r.GetByID(ctx, id)
		if gerr != nil {
			return review.Review{}, gerr
		}
		if current.Status.Terminal() {
			return review.Review{}, domain.NewTerminalStateError(
				fmt.Sprintf("review is %s, no further transitions", current.Status))
		}
		return review.Review{}, domain.NewConflictError(
			fmt.Sprintf("review moved to %s concurrently", current.Status))
	}
	return rev, err
}

func (r *ReviewRepository) RecordDecision(ctx context.Context, d review.Decision) (review.Decision, error) {
	var createdAt sql.NullTime
	err := queryRow(ctx, r.db, `
		INSERT INTO review_decisions (decision_id, review_id, instructor, action, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		d.ID, d.ReviewID, d.Instructor, string(d.Action), d.Comment,
	).Scan(&createdAt)
	if err != nil {
		return review.Decision{}, err
	}
	if createdAt.Valid {
		t := createdAt.Time
		d.CreatedAt = &t
	}
	return d, nil
}

func collectReviews(rows *sql.Rows) ([]review.Review, error) {
	defer rows.Close()

	var res []review.Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rev)
	}
	return res, rows.Err()
}

func scanReview(row rowScanner) (review.Review, error) {
	var rev review.Review
	var category, rating, verdict, status string
	var expectations, findings, remarks []byte
	var failureReason, decidedBy, decisionComment sql.NullString
	var commentID sql.NullInt64
	var createdAt, decidedAt, postedAt sql.NullTime

	err := row.Scan(
		&rev.ID, &rev.PullRequestID, &rev.HeadSHA, &category,
		&expectations, &findings, &remarks, &rev.Summary, &rev.Score,
		&rating, &verdict, &status, &failureReason, &commentID,
		&decidedBy, &decisionComment, &createdAt, &decidedAt, &postedAt,
	)
	if err != nil {
		return review.Review{}, err
	}

	rev.Category = rules.Category(category)
	rev.Rating = engine.Rating(rating)
	rev.Verdict = engine.SummaryVerdict(verdict)
	rev.Status = review.Status(status)
	rev.FailureReason = failureReason.String
	rev.DecidedBy = decidedBy.String
	rev.DecisionComment = decisionComment.String

	if err := json.Unmarshal(expectations, &rev.Expectations); err != nil {
		return review.Review{}, fmt.Errorf("unmarshal expectations: %w", err)
	}
	if err := json.Unmarshal(findings, &rev.Findings); err != nil {
		return review.Review{}, fmt.Errorf("unmarshal findings: %w", err)
	}
	if err := json.Unmarshal(remarks, &rev.Remarks); err != nil {
		return review.Review{}, fmt.Errorf("unmarshal remarks: %w", err)
	}

	if commentID.Valid {
		v := commentID.Int64
		rev.GithubCommentID = &v
	}
	if createdAt.Valid {
		t := createdAt.Time
		rev.CreatedAt = &t
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		rev.DecidedAt = &t
	}
	if postedAt.Valid {
		t := postedAt.Time
		rev.PostedAt = &t
	}
	return rev, nil
}
