// AngelaMos | 2026
// backfill_test.go

package backfill

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/formset/backend/internal/core"
)

type fakeAdminFinder struct {
	id    string
	email string
	err   error
}

func (f *fakeAdminFinder) FirstAdminID(
	_ context.Context,
) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	return f.id, f.email, nil
}

// fakeRepairer tracks which rows lack a tenant, mirroring the set-based
// UPDATE the real repositories run.
type fakeRepairer struct {
	tenants  map[string]string
	assigned []string
	err      error
}

func newFakeRepairer(untagged ...string) *fakeRepairer {
	tenants := make(map[string]string)
	for _, id := range untagged {
		tenants[id] = ""
	}
	return &fakeRepairer{tenants: tenants}
}

func (f *fakeRepairer) AssignTenantWhereMissing(
	_ context.Context,
	tenantID string,
) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}

	var count int64
	for id, tenant := range f.tenants {
		if tenant == "" {
			f.tenants[id] = tenantID
			f.assigned = append(f.assigned, id)
			count++
		}
	}
	return count, nil
}

func TestRunRepairsUntaggedRows(t *testing.T) {
	admins := &fakeAdminFinder{id: "admin-1", email: "root@example.com"}
	forms := newFakeRepairer("form-1", "form-2")
	subs := newFakeRepairer("sub-1", "sub-2", "sub-3")
	runner := NewRunner(admins, forms, subs)

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.AdminID != "admin-1" {
		t.Errorf("AdminID = %q, want admin-1", report.AdminID)
	}
	if report.FormsRepaired != 2 {
		t.Errorf("FormsRepaired = %d, want 2", report.FormsRepaired)
	}
	if report.SubmissionsRepaired != 3 {
		t.Errorf("SubmissionsRepaired = %d, want 3", report.SubmissionsRepaired)
	}

	for id, tenant := range forms.tenants {
		if tenant != "admin-1" {
			t.Errorf("form %s tenant = %q, want admin-1", id, tenant)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	admins := &fakeAdminFinder{id: "admin-1", email: "root@example.com"}
	forms := newFakeRepairer("form-1")
	subs := newFakeRepairer("sub-1")
	runner := NewRunner(admins, forms, subs)

	first, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.FormsRepaired != 1 || first.SubmissionsRepaired != 1 {
		t.Fatalf("first run repaired %d/%d, want 1/1",
			first.FormsRepaired, first.SubmissionsRepaired)
	}

	second, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.FormsRepaired != 0 || second.SubmissionsRepaired != 0 {
		t.Errorf("second run repaired %d/%d, want 0/0",
			second.FormsRepaired, second.SubmissionsRepaired)
	}
	if forms.tenants["form-1"] != "admin-1" {
		t.Errorf(
			"form tenant = %q after second run, want admin-1 unchanged",
			forms.tenants["form-1"],
		)
	}
}

func TestRunAbortsWithoutAdmin(t *testing.T) {
	admins := &fakeAdminFinder{
		err: fmt.Errorf("find admin: %w", core.ErrNotFound),
	}
	forms := newFakeRepairer("form-1")
	subs := newFakeRepairer("sub-1")
	runner := NewRunner(admins, forms, subs)

	_, err := runner.Run(context.Background())
	if !errors.Is(err, ErrNoAdmin) {
		t.Fatalf("err = %v, want ErrNoAdmin", err)
	}
	if !errors.Is(err, core.ErrPreconditionFailed) {
		t.Error("ErrNoAdmin should wrap the precondition sentinel")
	}

	// Nothing may be mutated when the precondition fails.
	if len(forms.assigned) != 0 || len(subs.assigned) != 0 {
		t.Error("rows mutated despite missing admin")
	}
}

func TestRunSurfacesRepairFailure(t *testing.T) {
	admins := &fakeAdminFinder{id: "admin-1", email: "root@example.com"}
	forms := newFakeRepairer("form-1")
	forms.err = errors.New("deadlock detected")
	subs := newFakeRepairer("sub-1")
	runner := NewRunner(admins, forms, subs)

	_, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected repair failure to surface")
	}
	if len(subs.assigned) != 0 {
		t.Error("submissions repaired after form repair failed")
	}
}
