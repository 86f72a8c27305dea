// AngelaMos | 2026
// entity.go

package submission

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DataMap is the submitted key-value payload, stored as jsonb. Keys are
// expected to match the parent form's field names but are not
// schema-validated here.
type DataMap map[string]any

func (m DataMap) Value() (driver.Value, error) {
	if m == nil {
		m = DataMap{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal submission data: %w", err)
	}
	return data, nil
}

func (m *DataMap) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = DataMap{}
		return nil
	default:
		return fmt.Errorf("scan submission data: unsupported type %T", src)
	}
}

// Submission is one stored form response. It is create-once: there is
// no update path anywhere in the system, so the row carries no
// updated_at. Tenant is copied from the parent form at creation and
// stays nullable until the backfill has repaired pre-cutover rows.
type Submission struct {
	ID          string    `db:"id"           json:"id"`
	FormID      string    `db:"form_id"      json:"form_id"`
	Data        DataMap   `db:"data"         json:"data"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
	IPAddress   string    `db:"ip_address"   json:"ip_address"`
	UserAgent   string    `db:"user_agent"   json:"user_agent"`
	Tenant      *string   `db:"tenant"       json:"tenant,omitempty"`
}

// TenantID returns the owning tenant id, or "" when unset.
func (s *Submission) TenantID() string {
	if s.Tenant == nil {
		return ""
	}
	return *s.Tenant
}
