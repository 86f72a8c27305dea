// AngelaMos | 2026
// service.go

package form

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/formset/backend/internal/access"
	"github.com/formset/backend/internal/core"
	"github.com/formset/backend/internal/tenancy"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a new form for the actor. Ownership always comes from
// the actor: client-supplied created_by and tenant values are discarded
// before the draft reaches the repository.
func (s *Service) Create(
	ctx context.Context,
	actor access.Actor,
	req CreateFormRequest,
) (*Form, error) {
	decision := access.Decide(access.OpCreate, access.Forms, actor)
	if decision.Effect == access.Deny {
		if actor.IsAnonymous() {
			return nil, fmt.Errorf("create form: %w", core.ErrUnauthorized)
		}
		return nil, fmt.Errorf("create form: %w", core.ErrForbidden)
	}

	if err := ValidateFields(req.Fields); err != nil {
		return nil, err
	}

	ownerID, ok := tenancy.Ownership(actor)
	if !ok {
		return nil, fmt.Errorf("create form: %w", core.ErrUnauthorized)
	}

	fields := req.Fields
	fields.Normalize()

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	form := &Form{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Slug:        tenancy.Slugify(req.Title, time.Now()),
		Fields:      fields,
		IsActive:    isActive,
		CreatedBy:   &ownerID,
		Tenant:      &ownerID,
	}

	if err := s.repo.Create(ctx, form); err != nil {
		return nil, err
	}

	return form, nil
}

// Get fetches one form under the actor's scope. Out-of-scope forms are
// reported as not found so their existence does not leak across
// tenants.
func (s *Service) Get(
	ctx context.Context,
	actor access.Actor,
	id string,
) (*Form, error) {
	decision := access.Decide(access.OpRead, access.Forms, actor)
	if decision.Effect == access.Deny {
		return nil, fmt.Errorf("get form: %w", core.ErrUnauthorized)
	}

	form, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Query-level filters do not apply to fetch-by-id, so the scope is
	// re-checked against the concrete row.
	if !decision.PermitsOwner(form.Owner()) {
		return nil, fmt.Errorf("get form: %w", core.ErrNotFound)
	}

	return form, nil
}

func (s *Service) List(
	ctx context.Context,
	actor access.Actor,
	params ListFormsParams,
) ([]Form, int, error) {
	decision := access.Decide(access.OpRead, access.Forms, actor)
	if decision.Effect == access.Deny {
		return nil, 0, fmt.Errorf("list forms: %w", core.ErrUnauthorized)
	}

	return s.repo.List(ctx, decision.Filter, params)
}

// Update applies a partial patch. A non-empty client-supplied slug is
// preserved as-is; the slug is only re-derived when the client clears
// it explicitly.
func (s *Service) Update(
	ctx context.Context,
	actor access.Actor,
	id string,
	req UpdateFormRequest,
) (*Form, error) {
	decision := access.Decide(access.OpUpdate, access.Forms, actor)
	if decision.Effect == access.Deny {
		return nil, fmt.Errorf("update form: %w", core.ErrUnauthorized)
	}

	form, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !decision.PermitsOwner(form.Owner()) {
		return nil, fmt.Errorf("update form: %w", core.ErrNotFound)
	}

	if req.Title != nil {
		form.Title = *req.Title
	}
	if req.Description != nil {
		form.Description = *req.Description
	}
	if req.Slug != nil {
		if *req.Slug != "" {
			form.Slug = *req.Slug
		} else {
			form.Slug = tenancy.Slugify(form.Title, time.Now())
		}
	}
	if req.Fields != nil {
		if err := ValidateFields(*req.Fields); err != nil {
			return nil, err
		}
		fields := *req.Fields
		fields.Normalize()
		form.Fields = fields
	}
	if req.IsActive != nil {
		form.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, form); err != nil {
		return nil, err
	}

	return form, nil
}

func (s *Service) Delete(
	ctx context.Context,
	actor access.Actor,
	id string,
) error {
	decision := access.Decide(access.OpDelete, access.Forms, actor)
	if decision.Effect == access.Deny {
		return fmt.Errorf("delete form: %w", core.ErrUnauthorized)
	}

	form, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !decision.PermitsOwner(form.Owner()) {
		return fmt.Errorf("delete form: %w", core.ErrNotFound)
	}

	return s.repo.Delete(ctx, id)
}

// GetForActor is the scoped lookup the submission ingest flow tries
// first; it is Get without the handler-facing wrapping.
func (s *Service) GetForActor(
	ctx context.Context,
	actor access.Actor,
	id string,
) (*Form, error) {
	return s.Get(ctx, actor, id)
}

// GetElevated bypasses access scoping for a read-only lookup. The
// ingest flow uses it so an anonymous submitter, who has no read grant
// on forms, can still resolve the form they are submitting to.
func (s *Service) GetElevated(ctx context.Context, id string) (*Form, error) {
	return s.repo.GetByID(ctx, id)
}

// AssignTenantWhereMissing backfills the tenant column on rows that
// predate the ownership cutover.
func (s *Service) AssignTenantWhereMissing(
	ctx context.Context,
	tenantID string,
) (int64, error) {
	return s.repo.AssignTenantWhereMissing(ctx, tenantID)
}

// CountMissingTenant reports how many forms still await the backfill.
func (s *Service) CountMissingTenant(ctx context.Context) (int64, error) {
	return s.repo.CountMissingTenant(ctx)
}
