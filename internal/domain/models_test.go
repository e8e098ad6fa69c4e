package domain

import (
	"testing"
	"time"
)

func TestRequest_Matured_Boundary(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	window := 48 * time.Hour

	exact := Request{CreatedAt: now.Add(-48 * time.Hour).Unix()}
	if !exact.Matured(now, window) {
		t.Fatalf("request aged exactly 48h must be eligible")
	}

	oneSecondShy := Request{CreatedAt: now.Add(-48*time.Hour + time.Second).Unix()}
	if oneSecondShy.Matured(now, window) {
		t.Fatalf("request aged 47h59m59s must not be eligible")
	}
}

func TestRequest_Age(t *testing.T) {
	now := time.Unix(2_000_000_000, 0)
	r := Request{CreatedAt: now.Add(-90 * time.Minute).Unix()}
	if got := r.Age(now); got != 90*time.Minute {
		t.Fatalf("Age = %v, want 90m", got)
	}
}

func TestUser_Mention(t *testing.T) {
	u := User{ID: "42", Name: "someone#1234"}
	if got := u.Mention(); got != "<@42>" {
		t.Fatalf("Mention = %q", got)
	}
	if got := RoleMention("77"); got != "<@&77>" {
		t.Fatalf("RoleMention = %q", got)
	}
}

func TestRoleTable_Lookup_FoldsCase(t *testing.T) {
	tbl := NewRoleTable(map[string]string{
		"Ken Carson": "100",
		"carti":      "200",
	}, "999")

	cases := []struct {
		artist string
		want   string
	}{
		{"ken carson", "100"},
		{"KEN CARSON", "100"},
		{"Carti", "200"},
		{"someone unknown", "999"},
		{"", "999"},
	}
	for _, tc := range cases {
		if got := tbl.Lookup(tc.artist); got != tc.want {
			t.Fatalf("Lookup(%q) = %q, want %q", tc.artist, got, tc.want)
		}
	}
}

func TestRoleTable_RoleIDs_IncludesFallbackOnce(t *testing.T) {
	tbl := NewRoleTable(map[string]string{
		"a": "1",
		"b": "2",
		"c": "2", // duplicate role id, must not repeat
	}, "3")

	ids := tbl.RoleIDs()
	if len(ids) != 3 {
		t.Fatalf("RoleIDs = %v, want 3 unique ids", ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate role id %q in %v", id, ids)
		}
		seen[id] = true
	}
	for _, want := range []string{"1", "2", "3"} {
		if !seen[want] {
			t.Fatalf("missing role id %q in %v", want, ids)
		}
	}
}
