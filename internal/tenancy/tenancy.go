// AngelaMos | 2026
// tenancy.go

// Package tenancy holds the ownership-stamping rules applied when forms
// and submissions are created. Everything here is a pure function;
// services compose the stamping into their create flows explicitly so
// ordering and overwrite behavior stay visible and testable.
package tenancy

import (
	"strconv"
	"strings"
	"time"

	"github.com/formset/backend/internal/access"
)

// Ownership returns the owner reference to stamp onto a new form. The
// returned id always comes from the actor, never from client input:
// whatever createdBy/tenant values a request body carries are
// overwritten, which is what prevents ownership spoofing. ok is false
// for anonymous actors.
func Ownership(actor access.Actor) (ownerID string, ok bool) {
	if actor.IsAnonymous() {
		return "", false
	}
	return actor.ID, true
}

// Slugify derives a URL-safe slug from a form title: lowercase, every
// run of non-alphanumeric characters collapsed to a single hyphen,
// leading and trailing hyphens stripped, and the Unix-millisecond
// timestamp appended so concurrent creations of identically titled
// forms stay distinct.
func Slugify(title string, now time.Time) string {
	var b strings.Builder
	b.Grow(len(title))

	lastHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	suffix := strconv.FormatInt(now.UnixMilli(), 10)

	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}

type StampOutcome int

const (
	// StampApplied: the parent form carried a tenant and it was copied
	// onto the submission.
	StampApplied StampOutcome = iota
	// StampSkippedNoTenant: the parent form predates the tenant cutover
	// and has no tenant yet; the backfill will repair the submission.
	StampSkippedNoTenant
	// StampSkippedError: the parent form lookup failed; the submission
	// proceeds untagged rather than rejecting a legitimate submitter.
	StampSkippedError
)

func (o StampOutcome) String() string {
	switch o {
	case StampApplied:
		return "applied"
	case StampSkippedNoTenant:
		return "skipped_no_tenant"
	case StampSkippedError:
		return "skipped_error"
	default:
		return "unknown"
	}
}

// StampResult reports how tenant derivation for a submission went.
// Skipped outcomes are logged by the caller and never abort the
// submission.
type StampResult struct {
	Tenant  string
	Outcome StampOutcome
	Err     error
}

// DeriveTenant resolves the tenant to stamp onto a new submission from
// its parent form's tenant. formTenant is empty when the form has not
// been backfilled; lookupErr is non-nil when the auxiliary form lookup
// itself failed.
func DeriveTenant(formTenant string, lookupErr error) StampResult {
	if lookupErr != nil {
		return StampResult{Outcome: StampSkippedError, Err: lookupErr}
	}
	if formTenant == "" {
		return StampResult{Outcome: StampSkippedNoTenant}
	}
	return StampResult{Tenant: formTenant, Outcome: StampApplied}
}
