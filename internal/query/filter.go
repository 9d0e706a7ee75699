// Package query implements in-memory predicate matching over claim sets.
package query

import (
	"strings"

	"github.com/rajcare/claimsight/pkg/models"
)

// Apply narrows claims to those matching every non-empty filter value.
// Filters combine with logical AND and the input ordering is preserved.
func Apply(claims []models.Claim, f models.ClaimFilter) []models.Claim {
	if f.IsEmpty() {
		return claims
	}
	var out []models.Claim
	for _, c := range claims {
		if Matches(c, f) {
			out = append(out, c)
		}
	}
	return out
}

// Matches reports whether a single claim satisfies the filter:
// claim id and service date match exactly after trimming, member name
// by case-insensitive substring, status by case-insensitive equality.
func Matches(c models.Claim, f models.ClaimFilter) bool {
	if f.ClaimID != "" && strings.TrimSpace(c.ID) != strings.TrimSpace(f.ClaimID) {
		return false
	}
	if f.MemberName != "" && !strings.Contains(strings.ToLower(c.MemberName), strings.ToLower(f.MemberName)) {
		return false
	}
	if f.ServiceDate != "" && strings.TrimSpace(c.ServiceDate) != strings.TrimSpace(f.ServiceDate) {
		return false
	}
	if f.Status != "" && !strings.EqualFold(c.Status, f.Status) {
		return false
	}
	return true
}
