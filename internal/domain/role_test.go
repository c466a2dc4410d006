package domain

import (
	"encoding/json"
	"testing"
)

func TestRoleSatisfies(t *testing.T) {
	cases := []struct {
		have, need Role
		want       bool
	}{
		{RoleUser, RoleUser, true},
		{RoleAdmin, RoleUser, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleUser, RoleAdmin, false},
		{Role("guest"), RoleUser, false},
		{RoleAdmin, Role("root"), false},
	}
	for _, tc := range cases {
		if got := tc.have.Satisfies(tc.need); got != tc.want {
			t.Errorf("%q.Satisfies(%q) = %v, want %v", tc.have, tc.need, got, tc.want)
		}
	}
}

func TestRoleValid(t *testing.T) {
	if !RoleUser.Valid() || !RoleAdmin.Valid() {
		t.Fatal("expected built-in roles to be valid")
	}
	if Role("").Valid() {
		t.Fatal("expected empty role to be invalid")
	}
}

func TestNewPageNeverNilData(t *testing.T) {
	page := NewPage[Product](nil, 0, Pagination{Limit: 10, Offset: 0})
	raw, err := json.Marshal(page)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"data":[],"count":0,"limit":10,"offset":0}`
	if string(raw) != want {
		t.Fatalf("got %s, want %s", raw, want)
	}
}

func TestUserHidesPasswordHash(t *testing.T) {
	raw, err := json.Marshal(User{ID: "1", Name: "A", Email: "a@x.com", PasswordHash: "secret", Role: RoleUser})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := out["passwordHash"]; ok {
		t.Fatalf("password hash leaked: %s", raw)
	}
	if _, ok := out["PasswordHash"]; ok {
		t.Fatalf("password hash leaked: %s", raw)
	}
}
