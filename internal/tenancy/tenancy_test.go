// AngelaMos | 2026
// tenancy_test.go

package tenancy

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/formset/backend/internal/access"
)

func TestOwnership(t *testing.T) {
	if _, ok := Ownership(access.Anonymous); ok {
		t.Error("anonymous actor should not yield an owner")
	}

	owner, ok := Ownership(access.Actor{ID: "u1", Role: access.RoleUser})
	if !ok || owner != "u1" {
		t.Errorf("Ownership(user) = (%q, %v), want (u1, true)", owner, ok)
	}

	owner, ok = Ownership(access.Actor{ID: "a1", Role: access.RoleAdmin})
	if !ok || owner != "a1" {
		t.Errorf("Ownership(admin) = (%q, %v), want (a1, true)", owner, ok)
	}
}

func TestSlugify(t *testing.T) {
	now := time.UnixMilli(1735689600123)
	suffix := strconv.FormatInt(now.UnixMilli(), 10)

	tests := []struct {
		title string
		want  string
	}{
		{"Contact Us!! Please", "contact-us-please-" + suffix},
		{"Survey", "survey-" + suffix},
		{"  Hello   World  ", "hello-world-" + suffix},
		{"UPPER case 42", "upper-case-42-" + suffix},
		{"---", suffix},
		{"", suffix},
	}

	for _, tt := range tests {
		if got := Slugify(tt.title, now); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestSlugifyShape(t *testing.T) {
	pattern := regexp.MustCompile(`^contact-us-please-\d+$`)

	slug := Slugify("Contact Us!! Please", time.Now())
	if !pattern.MatchString(slug) {
		t.Errorf("slug %q does not match %s", slug, pattern)
	}
	if strings.Contains(slug, "--") {
		t.Errorf("slug %q contains consecutive hyphens", slug)
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		t.Errorf("slug %q has leading or trailing hyphen", slug)
	}
}

func TestDeriveTenant(t *testing.T) {
	res := DeriveTenant("tenant-1", nil)
	if res.Outcome != StampApplied || res.Tenant != "tenant-1" {
		t.Errorf("DeriveTenant with tenant = %+v, want applied", res)
	}

	res = DeriveTenant("", nil)
	if res.Outcome != StampSkippedNoTenant || res.Tenant != "" {
		t.Errorf("DeriveTenant without tenant = %+v, want skipped_no_tenant", res)
	}

	lookupErr := errors.New("connection reset")
	res = DeriveTenant("ignored", lookupErr)
	if res.Outcome != StampSkippedError || !errors.Is(res.Err, lookupErr) {
		t.Errorf("DeriveTenant with lookup error = %+v, want skipped_error", res)
	}
	if res.Tenant != "" {
		t.Errorf("lookup error must not stamp a tenant, got %q", res.Tenant)
	}
}
