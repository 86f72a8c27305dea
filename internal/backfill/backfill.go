// AngelaMos | 2026
// backfill.go

// Package backfill repairs rows created before tenant ownership became
// mandatory. It runs administratively, never on the request path, and
// is idempotent: a second pass matches zero rows.
package backfill

import (
	"context"
	"errors"
	"fmt"

	"github.com/formset/backend/internal/core"
)

// ErrNoAdmin means no admin account exists to serve as the fallback
// tenant. The run aborts before touching any row.
var ErrNoAdmin = fmt.Errorf(
	"no admin user found to own unassigned records: %w",
	core.ErrPreconditionFailed,
)

// AdminFinder locates the fallback owner. The user service satisfies
// it.
type AdminFinder interface {
	FirstAdminID(ctx context.Context) (id, email string, err error)
}

// Repairer is one collection's set-based tenant repair. The form and
// submission services each satisfy it.
type Repairer interface {
	AssignTenantWhereMissing(ctx context.Context, tenantID string) (int64, error)
}

// Report summarizes one run.
type Report struct {
	AdminID             string
	AdminEmail          string
	FormsRepaired       int64
	SubmissionsRepaired int64
}

type Runner struct {
	admins      AdminFinder
	forms       Repairer
	submissions Repairer
}

func NewRunner(admins AdminFinder, forms, submissions Repairer) *Runner {
	return &Runner{admins: admins, forms: forms, submissions: submissions}
}

// Run assigns the oldest admin as tenant to every form and submission
// lacking one. Authorship (created_by) is never modified. Forms are
// repaired before submissions so a crash between the two leaves the
// dataset strictly closer to repaired.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	adminID, adminEmail, err := r.admins.FirstAdminID(ctx)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrNoAdmin
		}
		return nil, fmt.Errorf("backfill: %w", err)
	}

	report := &Report{AdminID: adminID, AdminEmail: adminEmail}

	report.FormsRepaired, err = r.forms.AssignTenantWhereMissing(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("backfill forms: %w", err)
	}

	report.SubmissionsRepaired, err = r.submissions.AssignTenantWhereMissing(
		ctx,
		adminID,
	)
	if err != nil {
		return nil, fmt.Errorf("backfill submissions: %w", err)
	}

	return report, nil
}
