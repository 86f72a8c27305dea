// AngelaMos | 2026
// repository.go

package form

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/formset/backend/internal/access"
	"github.com/formset/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, form *Form) error
	GetByID(ctx context.Context, id string) (*Form, error)
	Update(ctx context.Context, form *Form) error
	Delete(ctx context.Context, id string) error
	List(
		ctx context.Context,
		filter *access.Filter,
		params ListFormsParams,
	) ([]Form, int, error)
	AssignTenantWhereMissing(ctx context.Context, tenantID string) (int64, error)
	CountMissingTenant(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, form *Form) error {
	query := `
		INSERT INTO forms
			(id, title, description, slug, fields, is_active,
			 created_by, tenant)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	row := struct {
		CreatedAt sql.NullTime `db:"created_at"`
		UpdatedAt sql.NullTime `db:"updated_at"`
	}{}

	err := r.db.GetContext(ctx, &row, query,
		form.ID,
		form.Title,
		form.Description,
		form.Slug,
		form.Fields,
		form.IsActive,
		form.CreatedBy,
		form.Tenant,
	)
	if err != nil {
		return fmt.Errorf("create form: %w", err)
	}

	form.CreatedAt = row.CreatedAt.Time
	form.UpdatedAt = row.UpdatedAt.Time
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Form, error) {
	query := `
		SELECT id, title, description, slug, fields, is_active,
		       created_by, tenant, created_at, updated_at
		FROM forms
		WHERE id = $1`

	var form Form
	err := r.db.GetContext(ctx, &form, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get form: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get form: %w", err)
	}

	return &form, nil
}

func (r *repository) Update(ctx context.Context, form *Form) error {
	query := `
		UPDATE forms
		SET title = $2, description = $3, slug = $4, fields = $5,
		    is_active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &form.UpdatedAt, query,
		form.ID,
		form.Title,
		form.Description,
		form.Slug,
		form.Fields,
		form.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update form: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update form: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM forms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete form: %w", core.ErrNotFound)
	}

	return nil
}

// List applies an access-scope filter, when present, as a mandatory
// predicate ANDed into both the count and the page query.
func (r *repository) List(
	ctx context.Context,
	filter *access.Filter,
	params ListFormsParams,
) ([]Form, int, error) {
	params.Normalize()

	where := "TRUE"
	args := []any{}
	argIdx := 1

	if filter != nil {
		column, err := scopeColumn(filter.Field)
		if err != nil {
			return nil, 0, err
		}
		where = fmt.Sprintf("%s = $%d", column, argIdx)
		args = append(args, filter.Value)
		argIdx++
	}

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM forms WHERE %s",
		where,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count forms: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, title, description, slug, fields, is_active,
		       created_by, tenant, created_at, updated_at
		FROM forms
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var forms []Form
	if err := r.db.SelectContext(ctx, &forms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list forms: %w", err)
	}

	return forms, total, nil
}

// AssignTenantWhereMissing repairs pre-cutover rows in one set-based
// statement. created_by is deliberately untouched: authorship and
// ownership scope diverge once the repair runs.
func (r *repository) AssignTenantWhereMissing(
	ctx context.Context,
	tenantID string,
) (int64, error) {
	query := `
		UPDATE forms
		SET tenant = $1, updated_at = NOW()
		WHERE tenant IS NULL`

	result, err := r.db.ExecContext(ctx, query, tenantID)
	if err != nil {
		return 0, fmt.Errorf("assign form tenants: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("assign form tenants: %w", err)
	}

	return rows, nil
}

// CountMissingTenant reports how many rows still await the backfill.
func (r *repository) CountMissingTenant(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(
		ctx,
		&count,
		`SELECT COUNT(*) FROM forms WHERE tenant IS NULL`,
	)
	if err != nil {
		return 0, fmt.Errorf("count untenanted forms: %w", err)
	}
	return count, nil
}

// scopeColumn maps an access-filter field to a column, rejecting
// anything outside the known scoping columns.
func scopeColumn(field string) (string, error) {
	switch field {
	case "created_by", "tenant":
		return field, nil
	}
	return "", fmt.Errorf("list forms: unsupported scope field %q", field)
}
