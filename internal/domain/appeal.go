package domain

import (
	"strings"

	util "github.com/spec-kit/ticket-bot/pkg/util"
)

// Appeal is the ephemeral record of one blacklist-appeal conversation. It
// exists only between flow start and submission; once submitted it becomes a
// review record posted in the staff appeal channel.
type Appeal struct {
	WorkspaceID   string
	SubjectID     string
	ReasonClaim   string
	Justification string
	Proof         string
}

// ReviewOutcome is the staff decision on a submitted appeal.
type ReviewOutcome string

const (
	ReviewApproved ReviewOutcome = "approved"
	ReviewRejected ReviewOutcome = "rejected"
)

// reviewFooterPrefix is the machine-readable field on a review record. It is
// the only durable link back to the appeal subject.
const reviewFooterPrefix = "User ID: "

// resolvedFooterPrefix marks a record that has already been actioned.
const resolvedFooterPrefix = "Resolved"

// ReviewFooter builds the footer for a freshly posted review record.
func ReviewFooter(subjectID string) string {
	return reviewFooterPrefix + subjectID
}

// ResolvedReviewFooter rewrites the footer after approve/reject so the
// record can never be actioned a second time.
func ResolvedReviewFooter(outcome ReviewOutcome, subjectID string) string {
	return resolvedFooterPrefix + " (" + string(outcome) + ") " + reviewFooterPrefix + subjectID
}

// ParseReviewFooter extracts the subject id from a review record footer.
// Records without a parseable digit run, and records already resolved, fail
// closed with RECORD_MALFORMED.
func ParseReviewFooter(footer string) (string, error) {
	if strings.HasPrefix(footer, resolvedFooterPrefix) {
		return "", util.NewRecordMalformed("review record already actioned")
	}
	idx := strings.Index(footer, reviewFooterPrefix)
	if idx < 0 {
		return "", util.NewRecordMalformed("review record carries no subject id")
	}
	rest := footer[idx+len(reviewFooterPrefix):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return "", util.NewRecordMalformed("review record subject id is not numeric")
	}
	return rest[:end], nil
}
