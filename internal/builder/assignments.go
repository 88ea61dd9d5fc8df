package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/callcoach/internal/logger"
	"github.com/julianstephens/callcoach/internal/models"
)

// AssignmentMode decides who a template applies to.
type AssignmentMode string

const (
	// AssignEveryone makes the template the organization default; no
	// assignment rows are created.
	AssignEveryone AssignmentMode = "everyone"
	// AssignSpecific assigns the template to selected users only.
	AssignSpecific AssignmentMode = "specific"
)

func (m AssignmentMode) Valid() bool {
	return m == AssignEveryone || m == AssignSpecific
}

// AssignmentFailure is one user whose assignment could not be created.
type AssignmentFailure struct {
	UserID string
	Err    error
}

// AssignmentReport summarizes a best-effort assignment run.
type AssignmentReport struct {
	Mode    AssignmentMode
	Created []models.Assignment
	Failed  []AssignmentFailure
}

// OK reports whether every requested assignment was created.
func (r AssignmentReport) OK() bool {
	return len(r.Failed) == 0
}

func (r AssignmentReport) String() string {
	if r.Mode == AssignEveryone {
		return "assigned to everyone (default template)"
	}
	if r.OK() {
		return fmt.Sprintf("assigned to %d user(s)", len(r.Created))
	}
	ids := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		ids[i] = f.UserID
	}
	return fmt.Sprintf("assigned to %d user(s), failed for %s", len(r.Created), strings.Join(ids, ", "))
}

// CreateAssignments assigns templateID to userIDs one request at a time. A
// failed request is recorded and the loop moves on to the next user.
func (s *Saver) CreateAssignments(ctx context.Context, templateID string, mode AssignmentMode, userIDs []string) AssignmentReport {
	report := AssignmentReport{Mode: mode}
	if mode != AssignSpecific {
		return report
	}

	for _, uid := range userIDs {
		if err := ctx.Err(); err != nil {
			report.Failed = append(report.Failed, AssignmentFailure{UserID: uid, Err: err})
			continue
		}
		a, err := s.api.CreateAssignment(ctx, models.Assignment{TemplateID: templateID, UserID: uid})
		if err != nil {
			logger.Warn("assignment failed", "template", templateID, "user", uid, "error", err)
			report.Failed = append(report.Failed, AssignmentFailure{UserID: uid, Err: err})
			continue
		}
		report.Created = append(report.Created, a)
	}
	logger.Info("assignments created", "template", templateID, "created", len(report.Created), "failed", len(report.Failed))
	return report
}
