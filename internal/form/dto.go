// AngelaMos | 2026
// dto.go

package form

import (
	"fmt"
	"time"

	"github.com/formset/backend/internal/core"
)

// CreateFormRequest accepts created_by and tenant from the client only
// so they can be demonstrably overwritten: ownership always comes from
// the authenticated actor, never from the payload.
type CreateFormRequest struct {
	Title       string          `json:"title"       validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Slug        string          `json:"slug"        validate:"omitempty,max=250"`
	Fields      FieldList       `json:"fields"      validate:"required,min=1"`
	IsActive    *bool           `json:"is_active"`
	CreatedBy   string          `json:"created_by"`
	Tenant      string          `json:"tenant"`
}

type UpdateFormRequest struct {
	Title       *string    `json:"title,omitempty"       validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Slug        *string    `json:"slug,omitempty"        validate:"omitempty,max=250"`
	Fields      *FieldList `json:"fields,omitempty"      validate:"omitempty,min=1"`
	IsActive    *bool      `json:"is_active,omitempty"`
}

type FormResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Slug        string    `json:"slug"`
	Fields      FieldList `json:"fields"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   string    `json:"created_by,omitempty"`
	Tenant      string    `json:"tenant,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListFormsParams struct {
	Page     int
	PageSize int
}

func (p *ListFormsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListFormsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ValidateFields rejects unknown field types before normalization runs.
func ValidateFields(fields FieldList) error {
	for i, f := range fields {
		if f.Name == "" {
			return fmt.Errorf(
				"field %d: name is required: %w",
				i,
				core.ErrInvalidInput,
			)
		}
		if !f.Type.Valid() {
			return fmt.Errorf(
				"field %q: unknown type %q: %w",
				f.Name,
				f.Type,
				core.ErrInvalidInput,
			)
		}
	}
	return nil
}

func ToFormResponse(f *Form) FormResponse {
	return FormResponse{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Slug:        f.Slug,
		Fields:      f.Fields,
		IsActive:    f.IsActive,
		CreatedBy:   f.Owner(),
		Tenant:      f.TenantID(),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func ToFormResponseList(forms []Form) []FormResponse {
	responses := make([]FormResponse, 0, len(forms))
	for i := range forms {
		responses = append(responses, ToFormResponse(&forms[i]))
	}
	return responses
}
