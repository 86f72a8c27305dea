// AngelaMos | 2026
// service_test.go

package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/formset/backend/internal/access"
	"github.com/formset/backend/internal/core"
	"github.com/formset/backend/internal/form"
)

type fakeRepository struct {
	subs       map[string]*Submission
	lastFilter *access.Filter
	createErr  error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{subs: make(map[string]*Submission)}
}

func (f *fakeRepository) Create(_ context.Context, sub *Submission) error {
	if f.createErr != nil {
		return f.createErr
	}
	clone := *sub
	f.subs[sub.ID] = &clone
	return nil
}

func (f *fakeRepository) GetByID(
	_ context.Context,
	id string,
) (*Submission, error) {
	sub, ok := f.subs[id]
	if !ok {
		return nil, fmt.Errorf("get submission: %w", core.ErrNotFound)
	}
	clone := *sub
	return &clone, nil
}

func (f *fakeRepository) Delete(_ context.Context, id string) error {
	if _, ok := f.subs[id]; !ok {
		return fmt.Errorf("delete submission: %w", core.ErrNotFound)
	}
	delete(f.subs, id)
	return nil
}

func (f *fakeRepository) List(
	_ context.Context,
	filter *access.Filter,
	_ ListSubmissionsParams,
) ([]Submission, int, error) {
	f.lastFilter = filter

	var out []Submission
	for _, sub := range f.subs {
		if filter != nil && sub.TenantID() != filter.Value {
			continue
		}
		out = append(out, *sub)
	}
	return out, len(out), nil
}

func (f *fakeRepository) AssignTenantWhereMissing(
	_ context.Context,
	tenantID string,
) (int64, error) {
	var count int64
	for _, sub := range f.subs {
		if sub.Tenant == nil {
			t := tenantID
			sub.Tenant = &t
			count++
		}
	}
	return count, nil
}

func (f *fakeRepository) CountMissingTenant(_ context.Context) (int64, error) {
	var count int64
	for _, sub := range f.subs {
		if sub.Tenant == nil {
			count++
		}
	}
	return count, nil
}

type fakeFormProvider struct {
	forms         map[string]*form.Form
	scopedErr     error
	elevatedErr   error
	elevatedCalls int
}

func newFakeFormProvider() *fakeFormProvider {
	return &fakeFormProvider{forms: make(map[string]*form.Form)}
}

func (f *fakeFormProvider) add(id, tenant string, active bool) *form.Form {
	frm := &form.Form{ID: id, Title: "Survey", IsActive: active}
	if tenant != "" {
		t := tenant
		frm.CreatedBy = &t
		frm.Tenant = &t
	}
	f.forms[id] = frm
	return frm
}

func (f *fakeFormProvider) GetForActor(
	_ context.Context,
	actor access.Actor,
	id string,
) (*form.Form, error) {
	if f.scopedErr != nil {
		return nil, f.scopedErr
	}

	frm, ok := f.forms[id]
	if !ok {
		return nil, fmt.Errorf("get form: %w", core.ErrNotFound)
	}

	decision := access.Decide(access.OpRead, access.Forms, actor)
	if decision.Effect == access.Deny {
		return nil, fmt.Errorf("get form: %w", core.ErrUnauthorized)
	}
	if !decision.PermitsOwner(frm.Owner()) {
		return nil, fmt.Errorf("get form: %w", core.ErrNotFound)
	}

	return frm, nil
}

func (f *fakeFormProvider) GetElevated(
	_ context.Context,
	id string,
) (*form.Form, error) {
	f.elevatedCalls++
	if f.elevatedErr != nil {
		return nil, f.elevatedErr
	}

	frm, ok := f.forms[id]
	if !ok {
		return nil, fmt.Errorf("get form: %w", core.ErrNotFound)
	}
	return frm, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIngestAnonymousStampsFormTenant(t *testing.T) {
	repo := newFakeRepository()
	forms := newFakeFormProvider()
	forms.add("form-1", "user-a", true)
	svc := NewService(repo, forms, testLogger())

	sub, err := svc.Ingest(
		context.Background(),
		access.Anonymous,
		"form-1",
		DataMap{"q1": "yes"},
		RequestMeta{IPAddress: "203.0.113.7", UserAgent: "curl/8.0"},
	)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if sub.TenantID() != "user-a" {
		t.Errorf("tenant = %q, want form owner %q", sub.TenantID(), "user-a")
	}
	if sub.IPAddress != "203.0.113.7" || sub.UserAgent != "curl/8.0" {
		t.Errorf(
			"request metadata not captured: ip=%q ua=%q",
			sub.IPAddress,
			sub.UserAgent,
		)
	}
	// The anonymous actor has no read grant on forms, so the stamp only
	// works through the elevated fallback lookup.
	if forms.elevatedCalls == 0 {
		t.Error("expected elevated lookup for anonymous submitter")
	}
}

func TestIngestOwnerSkipsElevatedLookup(t *testing.T) {
	repo := newFakeRepository()
	forms := newFakeFormProvider()
	forms.add("form-1", "user-a", true)
	svc := NewService(repo, forms, testLogger())

	owner := access.Actor{ID: "user-a", Role: access.RoleUser}
	if _, err := svc.Ingest(
		context.Background(),
		owner,
		"form-1",
		DataMap{"q1": "yes"},
		RequestMeta{},
	); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if forms.elevatedCalls != 0 {
		t.Errorf(
			"elevated lookup ran %d times for an in-scope actor",
			forms.elevatedCalls,
		)
	}
}

func TestIngestUnknownFormNotFound(t *testing.T) {
	repo := newFakeRepository()
	forms := newFakeFormProvider()
	svc := NewService(repo, forms, testLogger())

	_, err := svc.Ingest(
		context.Background(),
		access.Anonymous,
		"missing",
		DataMap{},
		RequestMeta{},
	)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if len(repo.subs) != 0 {
		t.Error("submission persisted for unknown form")
	}
}

func TestIngestInactiveFormRejected(t *testing.T) {
	repo := newFakeRepository()
	forms := newFakeFormProvider()
	forms.add("form-1", "user-a", false)
	svc := NewService(repo, forms, testLogger())

	_, err := svc.Ingest(
		context.Background(),
		access.Anonymous,
		"form-1",
		DataMap{"q1": "yes"},
		RequestMeta{},
	)
	if !errors.Is(err, core.ErrFormInactive) {
		t.Errorf("err = %v, want ErrFormInactive", err)
	}
	if len(repo.subs) != 0 {
		t.Error("submission persisted against inactive form")
	}
}

func TestIngestUntenantedFormProceedsUntagged(t *testing.T) {
	repo := newFakeRepository()
	forms := newFakeFormProvider()
	forms.add("form-1", "", true)
	svc := NewService(repo, forms, testLogger())

	sub, err := svc.Ingest(
		context.Background(),
		access.Anonymous,
		"form-1",
		DataMap{"q1": "yes"},
		RequestMeta{},
	)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if sub.Tenant != nil {
		t.Errorf("tenant = %v, want unset for pre-cutover form", *sub.Tenant)
	}
	if len(repo.subs) != 1 {
		t.Error("degraded submission was not persisted")
	}
}

func TestIngestStorageFailureSurfaced(t *testing.T) {
	repo := newFakeRepository()
	repo.createErr = errors.New("connection reset")
	forms := newFakeFormProvider()
	forms.add("form-1", "user-a", true)
	svc := NewService(repo, forms, testLogger())

	_, err := svc.Ingest(
		context.Background(),
		access.Anonymous,
		"form-1",
		DataMap{},
		RequestMeta{},
	)
	if err == nil {
		t.Fatal("expected storage error")
	}
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrFormInactive) {
		t.Errorf("storage failure misclassified: %v", err)
	}
}

func TestGetScopedByTenant(t *testing.T) {
	repo := newFakeRepository()
	forms := newFakeFormProvider()
	forms.add("form-1", "user-a", true)
	svc := NewService(repo, forms, testLogger())

	sub, err := svc.Ingest(
		context.Background(),
		access.Anonymous,
		"form-1",
		DataMap{"q1": "yes"},
		RequestMeta{},
	)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	tests := []struct {
		name    string
		actor   access.Actor
		wantErr error
	}{
		{
			name:  "tenant reads own submission",
			actor: access.Actor{ID: "user-a", Role: access.RoleUser},
		},
		{
			name:  "admin reads any submission",
			actor: access.Actor{ID: "root", Role: access.RoleAdmin},
		},
		{
			name:    "other tenant sees not found",
			actor:   access.Actor{ID: "user-b", Role: access.RoleUser},
			wantErr: core.ErrNotFound,
		},
		{
			name:    "anonymous is unauthorized",
			actor:   access.Anonymous,
			wantErr: core.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Get(context.Background(), tt.actor, sub.ID)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Get: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestListScopedByTenant(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, newFakeFormProvider(), testLogger())

	actor := access.Actor{ID: "user-b", Role: access.RoleUser}
	if _, _, err := svc.List(
		context.Background(),
		actor,
		ListSubmissionsParams{},
	); err != nil {
		t.Fatalf("List: %v", err)
	}

	if repo.lastFilter == nil {
		t.Fatal("non-admin list ran without a scope filter")
	}
	if repo.lastFilter.Field != "tenant" || repo.lastFilter.Value != "user-b" {
		t.Errorf("filter = %+v, want tenant=user-b", repo.lastFilter)
	}
}

func TestDeleteScopedByTenant(t *testing.T) {
	repo := newFakeRepository()
	forms := newFakeFormProvider()
	forms.add("form-1", "user-a", true)
	svc := NewService(repo, forms, testLogger())

	sub, err := svc.Ingest(
		context.Background(),
		access.Anonymous,
		"form-1",
		DataMap{},
		RequestMeta{},
	)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	other := access.Actor{ID: "user-b", Role: access.RoleUser}
	if err := svc.Delete(context.Background(), other, sub.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("out-of-scope delete err = %v, want ErrNotFound", err)
	}

	owner := access.Actor{ID: "user-a", Role: access.RoleUser}
	if err := svc.Delete(context.Background(), owner, sub.ID); err != nil {
		t.Fatalf("tenant delete: %v", err)
	}
}
