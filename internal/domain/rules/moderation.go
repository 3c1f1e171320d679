package rules

import (
	"strings"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
)

// Automated decision thresholds over the external safety score.
const (
	AutoApproveScore = 0.8
	AutoRejectScore  = 0.5
)

// faceIssuePrefix marks face-detection findings in the scorer output,
// e.g. "face:1". Any face is an absolute veto regardless of score.
const faceIssuePrefix = "face"

// DecideModeration maps (safety score, detected issues) to a moderation
// status. Scores in [AutoRejectScore, AutoApproveScore) defer to a human
// and stay in reviewing until an admin acts.
func DecideModeration(score float64, issues []string) enums.ModerationStatus {
	if HasFaceIssue(issues) {
		return enums.ModerationStatusRejected
	}
	if score >= AutoApproveScore {
		return enums.ModerationStatusApproved
	}
	if score < AutoRejectScore {
		return enums.ModerationStatusRejected
	}
	return enums.ModerationStatusReviewing
}

func HasFaceIssue(issues []string) bool {
	for _, issue := range issues {
		normalized := strings.ToLower(strings.TrimSpace(issue))
		if normalized == faceIssuePrefix || strings.HasPrefix(normalized, faceIssuePrefix+":") {
			return true
		}
	}
	return false
}

// Severity buckets the score for display in the admin queue. It never
// gates a decision.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func ScoreSeverity(score float64) Severity {
	if score >= 0.9 {
		return SeverityLow
	}
	if score >= 0.5 {
		return SeverityMedium
	}
	return SeverityHigh
}
