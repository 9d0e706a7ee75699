// Package stats aggregates claim sets into summary statistics.
package stats

import (
	"sort"
	"strings"

	"github.com/rajcare/claimsight/pkg/models"
	"github.com/shopspring/decimal"
)

// Summarize computes totals, a status histogram and filter facets.
// Money columns are summed at full decimal precision and rounded to two
// places only at the output boundary; a blank or unparseable amount
// contributes zero rather than failing the aggregation. Facets are drawn
// from the full unfiltered set so a caller can always present every
// filter choice, while totals cover only the filtered claims.
func Summarize(filtered, all []models.Claim, applied models.ClaimFilter) models.StatsSummary {
	rxCost := decimal.Zero
	planPaid := decimal.Zero
	yourShare := decimal.Zero
	statusCounts := make(map[string]int)

	for _, c := range filtered {
		rxCost = rxCost.Add(parseAmount(c.RxCost))
		planPaid = planPaid.Add(parseAmount(c.PlanPaid))
		yourShare = yourShare.Add(parseAmount(c.YourShare))
		statusCounts[c.Status]++
	}

	return models.StatsSummary{
		TotalClaims:    len(filtered),
		TotalRxCost:    rxCost.Round(2).InexactFloat64(),
		TotalPlanPaid:  planPaid.Round(2).InexactFloat64(),
		TotalYourShare: yourShare.Round(2).InexactFloat64(),
		StatusCounts:   statusCounts,
		FiltersApplied: echoFilters(applied),
		AvailableFilters: models.AvailableFilters{
			ClaimIDs:     distinct(all, func(c models.Claim) string { return c.ID }),
			MemberNames:  distinct(all, func(c models.Claim) string { return c.MemberName }),
			ServiceDates: distinct(all, func(c models.Claim) string { return c.ServiceDate }),
			Statuses:     distinct(all, func(c models.Claim) string { return c.Status }),
		},
	}
}

// echoFilters reports the supplied filter values back to the caller;
// filters that were not supplied echo as null.
func echoFilters(f models.ClaimFilter) models.AppliedFilters {
	return models.AppliedFilters{
		ClaimID:     echo(f.ClaimID),
		MemberName:  echo(f.MemberName),
		ServiceDate: echo(f.ServiceDate),
		Status:      echo(f.Status),
	}
}

func echo(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func parseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// distinct returns the sorted distinct non-empty values of one column.
func distinct(claims []models.Claim, value func(models.Claim) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range claims {
		v := value(c)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
