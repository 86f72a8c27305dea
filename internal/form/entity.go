// AngelaMos | 2026
// entity.go

package form

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
	FieldDate     FieldType = "date"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldEmail, FieldNumber, FieldTextarea,
		FieldSelect, FieldCheckbox, FieldRadio, FieldDate:
		return true
	}
	return false
}

// SupportsPlaceholder reports whether the placeholder attribute applies
// to this field type.
func (t FieldType) SupportsPlaceholder() bool {
	switch t {
	case FieldText, FieldEmail, FieldNumber, FieldTextarea:
		return true
	}
	return false
}

// SupportsOptions reports whether the newline-delimited options
// attribute applies to this field type.
func (t FieldType) SupportsOptions() bool {
	return t == FieldSelect || t == FieldRadio
}

// FieldDefinition is one entry in a form's ordered field schema. It is
// embedded in the form document, never addressed independently.
type FieldDefinition struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Placeholder string    `json:"placeholder,omitempty"`
	Options     string    `json:"options,omitempty"`
}

// Normalize clears attributes that do not apply to the field's type.
func (f *FieldDefinition) Normalize() {
	if !f.Type.SupportsPlaceholder() {
		f.Placeholder = ""
	}
	if !f.Type.SupportsOptions() {
		f.Options = ""
	}
}

// FieldList is the form's field schema, stored as a jsonb column.
type FieldList []FieldDefinition

func (l FieldList) Value() (driver.Value, error) {
	if l == nil {
		l = FieldList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	return data, nil
}

func (l *FieldList) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = FieldList{}
		return nil
	default:
		return fmt.Errorf("scan fields: unsupported type %T", src)
	}
}

func (l FieldList) Normalize() {
	for i := range l {
		l[i].Normalize()
	}
}

// Form is a tenant-owned form definition. CreatedBy and Tenant are
// nullable until the backfill repair of pre-cutover rows has run; every
// form created since the cutover carries both.
type Form struct {
	ID          string    `db:"id"          json:"id"`
	Title       string    `db:"title"       json:"title"`
	Description string    `db:"description" json:"description"`
	Slug        string    `db:"slug"        json:"slug"`
	Fields      FieldList `db:"fields"      json:"fields"`
	IsActive    bool      `db:"is_active"   json:"is_active"`
	CreatedBy   *string   `db:"created_by"  json:"created_by,omitempty"`
	Tenant      *string   `db:"tenant"      json:"tenant,omitempty"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"  json:"updated_at"`
}

// Owner returns the form's creator id, or "" when the row predates the
// ownership cutover.
func (f *Form) Owner() string {
	if f.CreatedBy == nil {
		return ""
	}
	return *f.CreatedBy
}

// TenantID returns the owning tenant id, or "" when unset.
func (f *Form) TenantID() string {
	if f.Tenant == nil {
		return ""
	}
	return *f.Tenant
}
