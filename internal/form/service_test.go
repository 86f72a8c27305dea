// AngelaMos | 2026
// service_test.go

package form

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/formset/backend/internal/access"
	"github.com/formset/backend/internal/core"
)

type fakeRepository struct {
	forms      map[string]*Form
	lastFilter *access.Filter
	listCalled bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{forms: make(map[string]*Form)}
}

func (f *fakeRepository) Create(_ context.Context, form *Form) error {
	clone := *form
	f.forms[form.ID] = &clone
	return nil
}

func (f *fakeRepository) GetByID(_ context.Context, id string) (*Form, error) {
	form, ok := f.forms[id]
	if !ok {
		return nil, fmt.Errorf("get form: %w", core.ErrNotFound)
	}
	clone := *form
	return &clone, nil
}

func (f *fakeRepository) Update(_ context.Context, form *Form) error {
	if _, ok := f.forms[form.ID]; !ok {
		return fmt.Errorf("update form: %w", core.ErrNotFound)
	}
	clone := *form
	f.forms[form.ID] = &clone
	return nil
}

func (f *fakeRepository) Delete(_ context.Context, id string) error {
	if _, ok := f.forms[id]; !ok {
		return fmt.Errorf("delete form: %w", core.ErrNotFound)
	}
	delete(f.forms, id)
	return nil
}

func (f *fakeRepository) List(
	_ context.Context,
	filter *access.Filter,
	_ ListFormsParams,
) ([]Form, int, error) {
	f.listCalled = true
	f.lastFilter = filter

	var out []Form
	for _, form := range f.forms {
		if filter != nil {
			owner := ""
			switch filter.Field {
			case "created_by":
				owner = form.Owner()
			case "tenant":
				owner = form.TenantID()
			}
			if owner != filter.Value {
				continue
			}
		}
		out = append(out, *form)
	}
	return out, len(out), nil
}

func (f *fakeRepository) AssignTenantWhereMissing(
	_ context.Context,
	tenantID string,
) (int64, error) {
	var count int64
	for _, form := range f.forms {
		if form.Tenant == nil {
			t := tenantID
			form.Tenant = &t
			count++
		}
	}
	return count, nil
}

func (f *fakeRepository) CountMissingTenant(_ context.Context) (int64, error) {
	var count int64
	for _, form := range f.forms {
		if form.Tenant == nil {
			count++
		}
	}
	return count, nil
}

func basicFields() FieldList {
	return FieldList{
		{Name: "q1", Label: "Question 1", Type: FieldText, Required: true},
	}
}

func TestCreateStampsOwnershipFromActor(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	actor := access.Actor{ID: "user-a", Role: access.RoleUser}

	form, err := svc.Create(context.Background(), actor, CreateFormRequest{
		Title:  "Survey",
		Fields: basicFields(),
		// Spoofed ownership must lose to the actor's identity.
		CreatedBy: "attacker",
		Tenant:    "attacker",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if form.Owner() != "user-a" {
		t.Errorf("created_by = %q, want %q", form.Owner(), "user-a")
	}
	if form.TenantID() != "user-a" {
		t.Errorf("tenant = %q, want %q", form.TenantID(), "user-a")
	}
	if !form.IsActive {
		t.Error("new form should default to active")
	}
}

func TestCreateDerivesSlug(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	actor := access.Actor{ID: "user-a", Role: access.RoleUser}

	form, err := svc.Create(context.Background(), actor, CreateFormRequest{
		Title:  "Contact Us!! Please",
		Fields: basicFields(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	pattern := regexp.MustCompile(`^contact-us-please-\d+$`)
	if !pattern.MatchString(form.Slug) {
		t.Errorf("slug = %q, want match for %v", form.Slug, pattern)
	}
}

func TestCreateRejectsAnonymous(t *testing.T) {
	svc := NewService(newFakeRepository())

	_, err := svc.Create(context.Background(), access.Anonymous, CreateFormRequest{
		Title:  "Survey",
		Fields: basicFields(),
	})
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestCreateRejectsUnknownFieldType(t *testing.T) {
	svc := NewService(newFakeRepository())
	actor := access.Actor{ID: "user-a", Role: access.RoleUser}

	_, err := svc.Create(context.Background(), actor, CreateFormRequest{
		Title: "Survey",
		Fields: FieldList{
			{Name: "q1", Label: "Q1", Type: FieldType("file")},
		},
	})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestCreateNormalizesInapplicableAttributes(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	actor := access.Actor{ID: "user-a", Role: access.RoleUser}

	form, err := svc.Create(context.Background(), actor, CreateFormRequest{
		Title: "Survey",
		Fields: FieldList{
			{
				Name:        "agree",
				Label:       "Agree?",
				Type:        FieldCheckbox,
				Placeholder: "should be cleared",
				Options:     "should be cleared",
			},
			{
				Name:    "color",
				Label:   "Color",
				Type:    FieldSelect,
				Options: "red\nblue",
			},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if form.Fields[0].Placeholder != "" || form.Fields[0].Options != "" {
		t.Errorf(
			"checkbox kept inapplicable attributes: placeholder=%q options=%q",
			form.Fields[0].Placeholder,
			form.Fields[0].Options,
		)
	}
	if form.Fields[1].Options != "red\nblue" {
		t.Errorf("select options = %q, want preserved", form.Fields[1].Options)
	}
}

func TestGetHidesOtherUsersForms(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	owner := access.Actor{ID: "user-a", Role: access.RoleUser}

	created, err := svc.Create(context.Background(), owner, CreateFormRequest{
		Title:  "Survey",
		Fields: basicFields(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		name    string
		actor   access.Actor
		wantErr error
	}{
		{
			name:  "owner reads own form",
			actor: owner,
		},
		{
			name:  "admin reads any form",
			actor: access.Actor{ID: "root", Role: access.RoleAdmin},
		},
		{
			name:    "other user sees not found",
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
			_, err := svc.Get(context.Background(), tt.actor, created.ID)
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

func TestListScopesNonAdminsByCreator(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	actor := access.Actor{ID: "user-a", Role: access.RoleUser}

	if _, _, err := svc.List(context.Background(), actor, ListFormsParams{}); err != nil {
		t.Fatalf("List: %v", err)
	}

	if repo.lastFilter == nil {
		t.Fatal("non-admin list ran without a scope filter")
	}
	if repo.lastFilter.Field != "created_by" || repo.lastFilter.Value != "user-a" {
		t.Errorf("filter = %+v, want created_by=user-a", repo.lastFilter)
	}
}

func TestListUnscopedForAdmin(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	admin := access.Actor{ID: "root", Role: access.RoleAdmin}

	if _, _, err := svc.List(context.Background(), admin, ListFormsParams{}); err != nil {
		t.Fatalf("List: %v", err)
	}

	if repo.lastFilter != nil {
		t.Errorf("admin list carried a filter: %+v", repo.lastFilter)
	}
}

func TestUpdatePreservesClientSlug(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	actor := access.Actor{ID: "user-a", Role: access.RoleUser}

	created, err := svc.Create(context.Background(), actor, CreateFormRequest{
		Title:  "Survey",
		Fields: basicFields(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	slug := "my-custom-slug"
	updated, err := svc.Update(context.Background(), actor, created.ID, UpdateFormRequest{
		Slug: &slug,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Slug != slug {
		t.Errorf("slug = %q, want client value %q preserved", updated.Slug, slug)
	}
}

func TestUpdateOutOfScopeLooksLikeNotFound(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	owner := access.Actor{ID: "user-a", Role: access.RoleUser}

	created, err := svc.Create(context.Background(), owner, CreateFormRequest{
		Title:  "Survey",
		Fields: basicFields(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	other := access.Actor{ID: "user-b", Role: access.RoleUser}
	title := "Hijacked"
	_, err = svc.Update(context.Background(), other, created.ID, UpdateFormRequest{
		Title: &title,
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	stored, _ := repo.GetByID(context.Background(), created.ID)
	if stored.Title != "Survey" {
		t.Errorf("title mutated to %q by out-of-scope actor", stored.Title)
	}
}

func TestDeleteScoped(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	owner := access.Actor{ID: "user-a", Role: access.RoleUser}

	created, err := svc.Create(context.Background(), owner, CreateFormRequest{
		Title:  "Survey",
		Fields: basicFields(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	other := access.Actor{ID: "user-b", Role: access.RoleUser}
	if err := svc.Delete(context.Background(), other, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("out-of-scope delete err = %v, want ErrNotFound", err)
	}

	if err := svc.Delete(context.Background(), owner, created.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}

	if _, err := repo.GetByID(context.Background(), created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Error("form still present after owner delete")
	}
}

func TestGetElevatedBypassesScope(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	owner := access.Actor{ID: "user-a", Role: access.RoleUser}

	created, err := svc.Create(context.Background(), owner, CreateFormRequest{
		Title:  "Survey",
		Fields: basicFields(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	form, err := svc.GetElevated(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetElevated: %v", err)
	}
	if form.ID != created.ID {
		t.Errorf("got form %q, want %q", form.ID, created.ID)
	}
}
