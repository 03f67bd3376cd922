package dto

import (
	"time"

	"reviewgate/internal/domain/engine"
	"reviewgate/internal/domain/review"
)

type Finding struct {
	Check       string `json:"check"`
	Description string `json:"description"`
	Weight      int    `json:"weight"`
	Verdict     string `json:"verdict"`
	Comment     string `json:"comment,omitempty"`
}

type Remark struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Comment  string `json:"comment"`
}

type Review struct {
	ReviewID        string     `json:"review_id"`
	PullRequestID   string     `json:"pull_request_id"`
	HeadSHA         string     `json:"head_sha"`
	Category        string     `json:"category"`
	Findings        []Finding  `json:"findings"`
	Remarks         []Remark   `json:"remarks,omitempty"`
	Summary         string     `json:"summary"`
	Score           int        `json:"score"`
	Rating          string     `json:"rating"`
	Verdict         string     `json:"verdict"`
	Status          string     `json:"status"`
	FailureReason   string     `json:"failure_reason,omitempty"`
	GithubCommentID *int64     `json:"github_comment_id,omitempty"`
	DecidedBy       string     `json:"decided_by,omitempty"`
	DecisionComment string     `json:"decision_comment,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	PostedAt        *time.Time `json:"posted_at,omitempty"`
}

func FromReview(r review.Review) Review {
	return Review{
		ReviewID:        r.ID,
		PullRequestID:   r.PullRequestID,
		HeadSHA:         r.HeadSHA,
		Category:        string(r.Category),
		Findings:        fromFindings(r.Findings),
		Remarks:         fromRemarks(r.Remarks),
		Summary:         r.Summary,
		Score:           r.Score,
		Rating:          string(r.Rating),
		Verdict:         string(r.Verdict),
		Status:          string(r.Status),
		FailureReason:   r.FailureReason,
		GithubCommentID: r.GithubCommentID,
		DecidedBy:       r.DecidedBy,
		DecisionComment: r.DecisionComment,
		CreatedAt:       r.CreatedAt,
		DecidedAt:       r.DecidedAt,
		PostedAt:        r.PostedAt,
	}
}

func FromReviews(in []review.Review) []Review {
	out := make([]Review, 0, len(in))
	for _, r := range in {
		out = append(out, FromReview(r))
	}
	return out
}

func fromFindings(in []engine.Finding) []Finding {
	out := make([]Finding, 0, len(in))
	for _, f := range in {
		out = append(out, Finding{
			Check:       f.Check,
			Description: f.Description,
			Weight:      f.Weight,
			Verdict:     string(f.Verdict),
			Comment:     f.Comment,
		})
	}
	return out
}

func fromRemarks(in []engine.Remark) []Remark {
	out := make([]Remark, 0, len(in))
	for _, r := range in {
		out = append(out, Remark{
			File:     r.File,
			Line:     r.Line,
			Severity: r.Severity,
			Comment:  r.Comment,
		})
	}
	return out
}
