// AngelaMos | 2026
// repository.go

package submission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/formset/backend/internal/access"
	"github.com/formset/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, sub *Submission) error
	GetByID(ctx context.Context, id string) (*Submission, error)
	Delete(ctx context.Context, id string) error
	List(
		ctx context.Context,
		filter *access.Filter,
		params ListSubmissionsParams,
	) ([]Submission, int, error)
	AssignTenantWhereMissing(ctx context.Context, tenantID string) (int64, error)
	CountMissingTenant(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, sub *Submission) error {
	query := `
		INSERT INTO form_submissions
			(id, form_id, data, ip_address, user_agent, tenant)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING submitted_at`

	err := r.db.GetContext(ctx, &sub.SubmittedAt, query,
		sub.ID,
		sub.FormID,
		sub.Data,
		sub.IPAddress,
		sub.UserAgent,
		sub.Tenant,
	)
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id string,
) (*Submission, error) {
	query := `
		SELECT id, form_id, data, submitted_at, ip_address, user_agent, tenant
		FROM form_submissions
		WHERE id = $1`

	var sub Submission
	err := r.db.GetContext(ctx, &sub, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get submission: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}

	return &sub, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM form_submissions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete submission: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	filter *access.Filter,
	params ListSubmissionsParams,
) ([]Submission, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if filter != nil {
		if filter.Field != "tenant" {
			return nil, 0, fmt.Errorf(
				"list submissions: unsupported scope field %q",
				filter.Field,
			)
		}
		conditions = append(conditions, fmt.Sprintf("tenant = $%d", argIdx))
		args = append(args, filter.Value)
		argIdx++
	}

	if params.FormID != "" {
		conditions = append(conditions, fmt.Sprintf("form_id = $%d", argIdx))
		args = append(args, params.FormID)
		argIdx++
	}

	where := conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM form_submissions WHERE %s",
		where,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, form_id, data, submitted_at, ip_address, user_agent, tenant
		FROM form_submissions
		WHERE %s
		ORDER BY submitted_at DESC
		LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var subs []Submission
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	return subs, total, nil
}

func (r *repository) AssignTenantWhereMissing(
	ctx context.Context,
	tenantID string,
) (int64, error) {
	query := `
		UPDATE form_submissions
		SET tenant = $1
		WHERE tenant IS NULL`

	result, err := r.db.ExecContext(ctx, query, tenantID)
	if err != nil {
		return 0, fmt.Errorf("assign submission tenants: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("assign submission tenants: %w", err)
	}

	return rows, nil
}

// CountMissingTenant reports how many rows still await the backfill.
func (r *repository) CountMissingTenant(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(
		ctx,
		&count,
		`SELECT COUNT(*) FROM form_submissions WHERE tenant IS NULL`,
	)
	if err != nil {
		return 0, fmt.Errorf("count untenanted submissions: %w", err)
	}
	return count, nil
}
