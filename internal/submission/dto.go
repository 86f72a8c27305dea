// AngelaMos | 2026
// dto.go

package submission

import (
	"time"
)

// IngestResponse deliberately echoes only the new row's id: returning
// the stored document would let a submitter inspect server-set fields
// and probe other submitters' data.
type IngestResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SubmissionID string `json:"submissionId"`
}

type SubmissionResponse struct {
	ID          string    `json:"id"`
	FormID      string    `json:"form_id"`
	Data        DataMap   `json:"data"`
	SubmittedAt time.Time `json:"submitted_at"`
	IPAddress   string    `json:"ip_address"`
	UserAgent   string    `json:"user_agent"`
	Tenant      string    `json:"tenant,omitempty"`
}

type ListSubmissionsParams struct {
	FormID   string
	Page     int
	PageSize int
}

func (p *ListSubmissionsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 50
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
}

func (p *ListSubmissionsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToSubmissionResponse(s *Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:          s.ID,
		FormID:      s.FormID,
		Data:        s.Data,
		SubmittedAt: s.SubmittedAt,
		IPAddress:   s.IPAddress,
		UserAgent:   s.UserAgent,
		Tenant:      s.TenantID(),
	}
}

func ToSubmissionResponseList(subs []Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(subs))
	for i := range subs {
		responses = append(responses, ToSubmissionResponse(&subs[i]))
	}
	return responses
}
