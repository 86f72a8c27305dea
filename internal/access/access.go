// AngelaMos | 2026
// access.go

// Package access implements the tenant-scoped access-control rules as
// pure decision functions. Services consult Decide before touching the
// persistence layer and re-check scoped decisions at the object level
// after any fetch-by-id.
package access

type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

type Collection string

const (
	Forms       Collection = "forms"
	Submissions Collection = "form_submissions"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Actor is the principal behind a request. The zero value is the
// anonymous principal.
type Actor struct {
	ID   string
	Role string
}

// Anonymous is the unauthenticated principal.
var Anonymous = Actor{}

func (a Actor) IsAnonymous() bool {
	return a.ID == ""
}

func (a Actor) IsAdmin() bool {
	return !a.IsAnonymous() && a.Role == RoleAdmin
}

type Effect int

const (
	Deny Effect = iota
	Allow
	Scoped
)

// Filter narrows a query to rows whose Field equals Value. Repositories
// must AND it into every listing or lookup they run under a Scoped
// decision; it is a mandate, not a hint.
type Filter struct {
	Field string
	Value string
}

// Decision is the outcome of an access check. Filter is non-nil exactly
// when Effect is Scoped.
type Decision struct {
	Effect Effect
	Filter *Filter
}

func allow() Decision {
	return Decision{Effect: Allow}
}

func deny() Decision {
	return Decision{Effect: Deny}
}

func scoped(field, value string) Decision {
	return Decision{Effect: Scoped, Filter: &Filter{Field: field, Value: value}}
}

// Decide evaluates the access rules for one operation on one
// collection. Precedence: anonymous rules, then admin, then
// owner-scoped rules for regular users. Submission updates are denied
// for everyone, admins included: submissions are immutable once stored.
func Decide(op Operation, col Collection, actor Actor) Decision {
	if col == Submissions && op == OpUpdate {
		return deny()
	}

	if actor.IsAnonymous() {
		// Public form submission is the product's core feature; whether
		// the targeted form exists and accepts submissions is enforced
		// by the ingest flow, not here.
		if col == Submissions && op == OpCreate {
			return allow()
		}
		return deny()
	}

	if actor.IsAdmin() {
		return allow()
	}

	if op == OpCreate {
		return allow()
	}

	switch col {
	case Forms:
		return scoped("created_by", actor.ID)
	case Submissions:
		return scoped("tenant", actor.ID)
	}

	return deny()
}

// PermitsOwner re-checks a decision against a concrete entity's owning
// reference. A scoped query filter alone is not enough: fetch-by-id
// paths bypass query filters, so callers must run this after the fetch.
// owner is the entity's created_by (forms) or tenant (submissions)
// value; entities with no owner set are only reachable by admins.
func (d Decision) PermitsOwner(owner string) bool {
	switch d.Effect {
	case Allow:
		return true
	case Scoped:
		return owner != "" && d.Filter != nil && d.Filter.Value == owner
	default:
		return false
	}
}
