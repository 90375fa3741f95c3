// Package review decides whether a pull request still needs a first review
// from a team member.
package review

import "github.com/reviewnudge/nudge/pkg/ghql"

// MemberAssociation is the author association GitHub reports for
// organization members.
const MemberAssociation = "MEMBER"

// Options selects the predicate strictness.
type Options struct {
	// RequireSelfAssignment additionally requires the pull request to have
	// exactly one assignee equal to its author. Freshly opened PRs in repos
	// with a triage bot get assigned to their author, so an author-only
	// assignee list means nobody has claimed the review yet.
	RequireSelfAssignment bool
}

// NeedsAttention reports whether a pull request qualifies for a nudge:
// authored by an organization member, not a draft, with no outstanding
// review requests and no submitted reviews. With RequireSelfAssignment set
// it must also carry exactly its author as the sole assignee.
func NeedsAttention(pr ghql.PullRequestSummary, opts Options) bool {
	if pr.AuthorAssociation != MemberAssociation {
		return false
	}
	if pr.IsDraft {
		return false
	}
	if pr.ReviewRequestCount != 0 {
		return false
	}
	if pr.ReviewCount != 0 {
		return false
	}
	if opts.RequireSelfAssignment {
		if len(pr.Assignees) != 1 || pr.Assignees[0] != pr.Author {
			return false
		}
	}
	return true
}
