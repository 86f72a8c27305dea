// AngelaMos | 2026
// access_test.go

package access

import (
	"testing"
)

func TestDecideAnonymous(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		col  Collection
		want Effect
	}{
		{"read forms", OpRead, Forms, Deny},
		{"update forms", OpUpdate, Forms, Deny},
		{"delete forms", OpDelete, Forms, Deny},
		{"create forms", OpCreate, Forms, Deny},
		{"read submissions", OpRead, Submissions, Deny},
		{"delete submissions", OpDelete, Submissions, Deny},
		{"create submissions", OpCreate, Submissions, Allow},
		{"update submissions", OpUpdate, Submissions, Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.op, tt.col, Anonymous)
			if got.Effect != tt.want {
				t.Fatalf("Decide(%s, %s, anonymous) = %v, want %v",
					tt.op, tt.col, got.Effect, tt.want)
			}
		})
	}
}

func TestDecideAdmin(t *testing.T) {
	admin := Actor{ID: "admin-1", Role: RoleAdmin}

	for _, col := range []Collection{Forms, Submissions} {
		for _, op := range []Operation{OpRead, OpCreate, OpUpdate, OpDelete} {
			got := Decide(op, col, admin)

			// Submissions are immutable even for admins.
			if col == Submissions && op == OpUpdate {
				if got.Effect != Deny {
					t.Errorf("Decide(update, submissions, admin) = %v, want Deny",
						got.Effect)
				}
				continue
			}

			if got.Effect != Allow {
				t.Errorf("Decide(%s, %s, admin) = %v, want Allow",
					op, col, got.Effect)
			}
			if got.Filter != nil {
				t.Errorf("admin decision carries a filter: %+v", got.Filter)
			}
		}
	}
}

func TestDecideUserFormsScopedByCreator(t *testing.T) {
	actor := Actor{ID: "user-1", Role: RoleUser}

	for _, op := range []Operation{OpRead, OpUpdate, OpDelete} {
		got := Decide(op, Forms, actor)
		if got.Effect != Scoped {
			t.Fatalf("Decide(%s, forms, user) = %v, want Scoped", op, got.Effect)
		}
		if got.Filter.Field != "created_by" || got.Filter.Value != "user-1" {
			t.Fatalf("filter = %+v, want created_by=user-1", got.Filter)
		}
	}

	if got := Decide(OpCreate, Forms, actor); got.Effect != Allow {
		t.Fatalf("Decide(create, forms, user) = %v, want Allow", got.Effect)
	}
}

func TestDecideUserSubmissionsScopedByTenant(t *testing.T) {
	actor := Actor{ID: "user-2", Role: RoleUser}

	for _, op := range []Operation{OpRead, OpDelete} {
		got := Decide(op, Submissions, actor)
		if got.Effect != Scoped {
			t.Fatalf("Decide(%s, submissions, user) = %v, want Scoped",
				op, got.Effect)
		}
		if got.Filter.Field != "tenant" || got.Filter.Value != "user-2" {
			t.Fatalf("filter = %+v, want tenant=user-2", got.Filter)
		}
	}

	if got := Decide(OpUpdate, Submissions, actor); got.Effect != Deny {
		t.Fatalf("Decide(update, submissions, user) = %v, want Deny", got.Effect)
	}
}

func TestPermitsOwner(t *testing.T) {
	scopedDecision := Decide(OpRead, Forms, Actor{ID: "u1", Role: RoleUser})

	if !scopedDecision.PermitsOwner("u1") {
		t.Error("scoped decision should permit the matching owner")
	}
	if scopedDecision.PermitsOwner("u2") {
		t.Error("scoped decision should reject a different owner")
	}
	if scopedDecision.PermitsOwner("") {
		t.Error("scoped decision should reject entities without an owner")
	}

	adminDecision := Decide(OpRead, Forms, Actor{ID: "a1", Role: RoleAdmin})
	if !adminDecision.PermitsOwner("") || !adminDecision.PermitsOwner("u2") {
		t.Error("allow decision should permit any owner")
	}

	denied := Decide(OpRead, Forms, Anonymous)
	if denied.PermitsOwner("u1") {
		t.Error("deny decision should never permit")
	}
}
