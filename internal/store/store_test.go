package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rajcare/claimsight/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "claims.csv"))
}

func claimInput(member string) map[string]any {
	return map[string]any{
		models.ColClaimType:    "Pharmacy",
		models.ColPolicyNumber: "POL-100",
		models.ColMemberName:   member,
		models.ColStatus:       "Pending",
	}
}

func TestStore_ListInitializesTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "claims.csv")
	s := New(path)

	claims, err := s.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(claims) != 0 {
		t.Errorf("expected empty store, got %d claims", len(claims))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("table was not created: %v", err)
	}
	if !strings.HasPrefix(string(data), "Claim Id,Claim Type,Policy Number") {
		t.Errorf("table missing header, got %q", string(data))
	}
}

func TestStore_CreateAssignsSequentialIDs(t *testing.T) {
	s := newTestStore(t)

	for i, want := range []string{"1", "2", "3"} {
		claim, err := s.Create(claimInput("Member"))
		if err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
		if claim.ID != want {
			t.Errorf("claim %d: expected id %q, got %q", i, want, claim.ID)
		}
	}
}

func TestStore_NoIDReuseAfterDelete(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := s.Create(claimInput("Member")); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if err := s.Delete("3"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	claim, err := s.Create(claimInput("Member"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if claim.ID != "4" {
		t.Errorf("expected id 4 after deleting 3, got %q", claim.ID)
	}
}

func TestStore_NoIDReuseAfterDeletingAll(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := s.Create(claimInput("Member")); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	for _, id := range []string{"1", "2", "3"} {
		if err := s.Delete(id); err != nil {
			t.Fatalf("delete %s failed: %v", id, err)
		}
	}

	// Even with an empty table the next id stays above every id ever
	// assigned.
	claim, err := s.Create(claimInput("Member"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if claim.ID != "4" {
		t.Errorf("expected id 4 after deleting all, got %q", claim.ID)
	}
}

func TestStore_GetAfterCreate(t *testing.T) {
	s := newTestStore(t)

	input := claimInput("Ana Smith")
	input[models.ColServiceDate] = "2026-01-15"
	input[models.ColRelationship] = "Self"
	input[models.ColProviderBilled] = true
	input[models.ColRxCost] = "120.50"

	created, err := s.Create(input)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != created {
		t.Errorf("get returned %+v, want %+v", got, created)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Get("42"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_CreateDefaults(t *testing.T) {
	s := newTestStore(t)

	claim, err := s.Create(claimInput("Member"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if claim.RxCost != "0" || claim.PlanPaid != "0" || claim.YourShare != "0" {
		t.Errorf("expected money fields to default to 0, got %q %q %q", claim.RxCost, claim.PlanPaid, claim.YourShare)
	}
	if claim.ProviderBilled != "false" {
		t.Errorf("expected Provider billed to default to false, got %q", claim.ProviderBilled)
	}
}

func TestStore_CreateValidation(t *testing.T) {
	s := newTestStore(t)

	// Missing entirely
	input := claimInput("Member")
	delete(input, models.ColPolicyNumber)
	_, err := s.Create(input)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != models.ColPolicyNumber {
		t.Errorf("expected %q reported, got %q", models.ColPolicyNumber, verr.Field)
	}

	// Blank after trim
	input = claimInput("Member")
	input[models.ColClaimType] = "   "
	_, err = s.Create(input)
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != models.ColClaimType {
		t.Errorf("expected first missing field %q, got %q", models.ColClaimType, verr.Field)
	}
}

func TestStore_ProviderBilledNormalization(t *testing.T) {
	tests := []struct {
		input any
		want  string
	}{
		{true, "true"},
		{false, "false"},
		{"true", "true"},
		{"TRUE", "true"},
		{"yes", "false"},
		{"", "false"},
		{nil, "false"},
	}

	for _, tt := range tests {
		s := newTestStore(t)
		input := claimInput("Member")
		input[models.ColProviderBilled] = tt.input
		claim, err := s.Create(input)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if claim.ProviderBilled != tt.want {
			t.Errorf("input %v: expected %q, got %q", tt.input, tt.want, claim.ProviderBilled)
		}
	}

	// The field is normalized even when the input omits it entirely.
	s := newTestStore(t)
	claim, err := s.Create(claimInput("Member"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if claim.ProviderBilled != "false" {
		t.Errorf("absent field: expected %q, got %q", "false", claim.ProviderBilled)
	}
}

func TestStore_UpdateTouchesOnlySuppliedFields(t *testing.T) {
	s := newTestStore(t)

	input := claimInput("Ana Smith")
	input[models.ColServiceDate] = "2026-01-15"
	input[models.ColRxCost] = "120.50"
	created, err := s.Create(input)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := s.Update(created.ID, map[string]any{models.ColStatus: "Approved"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	want := created
	want.Status = "Approved"
	if updated != want {
		t.Errorf("update changed more than Status: got %+v, want %+v", updated, want)
	}

	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != want {
		t.Errorf("persisted claim %+v, want %+v", got, want)
	}
}

func TestStore_UpdateIgnoresID(t *testing.T) {
	s := newTestStore(t)

	created, err := s.Create(claimInput("Member"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := s.Update(created.ID, map[string]any{models.ColClaimID: "99"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("claim id is immutable, got %q", updated.ID)
	}
}

func TestStore_UpdateMissing(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Update("42", map[string]any{models.ColStatus: "Approved"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_DeleteMissingLeavesStoreUnchanged(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create(claimInput("Member")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	before, err := s.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if err := s.Delete("42"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	after, err := s.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(after) != len(before) {
		t.Errorf("store changed: %d claims before, %d after", len(before), len(after))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("claim %d changed: %+v vs %+v", i, before[i], after[i])
		}
	}
}

func TestStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "claims.csv")
	s := New(path)

	members := []string{"Ana Smith", "Bob Lee", "Carol Diaz"}
	var created []models.Claim
	for _, m := range members {
		input := claimInput(m)
		input[models.ColRelationship] = "spouse"
		input[models.ColPrescriptionName] = "Amoxicillin, 500mg"
		claim, err := s.Create(input)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		created = append(created, claim)
	}

	// A fresh store on the same file must read back identical records
	// in insertion order.
	reopened := New(path)
	claims, err := reopened.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(claims) != len(created) {
		t.Fatalf("expected %d claims, got %d", len(created), len(claims))
	}
	for i := range created {
		if claims[i] != created[i] {
			t.Errorf("claim %d: got %+v, want %+v", i, claims[i], created[i])
		}
	}
}

func TestStore_ListSkipsBlankIDRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "claims.csv")
	s := New(path)

	if _, err := s.Create(claimInput("Member")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Append a stray row with a blank id.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, err := f.WriteString("  ,Pharmacy,POL-200,,Ghost,,,,false,0,0,0,Pending\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	f.Close()

	claims, err := s.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(claims) != 1 {
		t.Errorf("expected blank-id row to be skipped, got %d claims", len(claims))
	}
}
