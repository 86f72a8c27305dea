// AngelaMos | 2026
// service.go

package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/formset/backend/internal/access"
	"github.com/formset/backend/internal/core"
	"github.com/formset/backend/internal/form"
	"github.com/formset/backend/internal/tenancy"
)

// elevatedLookupTimeout bounds the fallback form lookup so a stalled
// read cannot hold a public submission open indefinitely.
const elevatedLookupTimeout = 5 * time.Second

// FormProvider is the slice of the form service the ingest flow needs:
// one actor-scoped lookup and one read-only elevated lookup for the
// anonymous-submitter fallback.
type FormProvider interface {
	GetForActor(
		ctx context.Context,
		actor access.Actor,
		id string,
	) (*form.Form, error)
	GetElevated(ctx context.Context, id string) (*form.Form, error)
}

type Service struct {
	repo   Repository
	forms  FormProvider
	logger *slog.Logger
}

func NewService(
	repo Repository,
	forms FormProvider,
	logger *slog.Logger,
) *Service {
	return &Service{repo: repo, forms: forms, logger: logger}
}

// RequestMeta is the request-derived metadata captured onto a stored
// submission. Either value may be empty; absence is not an error.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Ingest handles one public form submission: resolve the form under
// the caller's scope with an elevated read-only retry, enforce the
// active flag, stamp the tenant from the parent form, and store the
// row. Tenant stamping is the only soft step; every gate before it is
// a hard rejection.
func (s *Service) Ingest(
	ctx context.Context,
	actor access.Actor,
	formID string,
	data DataMap,
	meta RequestMeta,
) (*Submission, error) {
	decision := access.Decide(access.OpCreate, access.Submissions, actor)
	if decision.Effect == access.Deny {
		return nil, fmt.Errorf("ingest: %w", core.ErrForbidden)
	}

	parent, err := s.resolveForm(ctx, actor, formID)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", core.ErrNotFound)
	}

	if !parent.IsActive {
		return nil, fmt.Errorf("ingest: %w", core.ErrFormInactive)
	}

	sub := &Submission{
		ID:        uuid.New().String(),
		FormID:    parent.ID,
		Data:      data,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}

	stamp := tenancy.DeriveTenant(parent.TenantID(), nil)
	switch stamp.Outcome {
	case tenancy.StampApplied:
		tenant := stamp.Tenant
		sub.Tenant = &tenant
	default:
		// Degraded but non-fatal: the backfill repairs untagged rows.
		s.logger.Warn("submission stored without tenant",
			"form_id", parent.ID,
			"outcome", stamp.Outcome.String(),
			"error", stamp.Err,
		)
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}

// resolveForm tries the actor's own scope first, then retries once with
// an elevated read-only lookup. Anonymous submitters have no read grant
// on forms, so the scoped attempt legitimately fails for them; the
// elevated retry is what lets them discover whether the form exists
// and accepts submissions.
func (s *Service) resolveForm(
	ctx context.Context,
	actor access.Actor,
	formID string,
) (*form.Form, error) {
	parent, err := s.forms.GetForActor(ctx, actor, formID)
	if err == nil {
		return parent, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, elevatedLookupTimeout)
	defer cancel()

	parent, elevatedErr := s.forms.GetElevated(lookupCtx, formID)
	if elevatedErr != nil {
		if !errors.Is(elevatedErr, core.ErrNotFound) {
			s.logger.Error("elevated form lookup failed",
				"form_id", formID,
				"error", elevatedErr,
			)
		}
		return nil, elevatedErr
	}

	return parent, nil
}

// Get fetches one submission under the actor's tenant scope.
// Out-of-scope rows are reported as not found so another tenant's data
// never leaks its existence.
func (s *Service) Get(
	ctx context.Context,
	actor access.Actor,
	id string,
) (*Submission, error) {
	decision := access.Decide(access.OpRead, access.Submissions, actor)
	if decision.Effect == access.Deny {
		return nil, fmt.Errorf("get submission: %w", core.ErrUnauthorized)
	}

	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !decision.PermitsOwner(sub.TenantID()) {
		return nil, fmt.Errorf("get submission: %w", core.ErrNotFound)
	}

	return sub, nil
}

func (s *Service) List(
	ctx context.Context,
	actor access.Actor,
	params ListSubmissionsParams,
) ([]Submission, int, error) {
	decision := access.Decide(access.OpRead, access.Submissions, actor)
	if decision.Effect == access.Deny {
		return nil, 0, fmt.Errorf("list submissions: %w", core.ErrUnauthorized)
	}

	return s.repo.List(ctx, decision.Filter, params)
}

func (s *Service) Delete(
	ctx context.Context,
	actor access.Actor,
	id string,
) error {
	decision := access.Decide(access.OpDelete, access.Submissions, actor)
	if decision.Effect == access.Deny {
		return fmt.Errorf("delete submission: %w", core.ErrUnauthorized)
	}

	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !decision.PermitsOwner(sub.TenantID()) {
		return fmt.Errorf("delete submission: %w", core.ErrNotFound)
	}

	return s.repo.Delete(ctx, id)
}

// AssignTenantWhereMissing backfills the tenant column on rows that
// predate the ownership cutover.
func (s *Service) AssignTenantWhereMissing(
	ctx context.Context,
	tenantID string,
) (int64, error) {
	return s.repo.AssignTenantWhereMissing(ctx, tenantID)
}

// CountMissingTenant reports how many submissions still await the
// backfill.
func (s *Service) CountMissingTenant(ctx context.Context) (int64, error) {
	return s.repo.CountMissingTenant(ctx)
}
