package models

import "time"

// Canonical column names of the claims table. The persisted CSV writes
// exactly these thirteen columns in this order.
const (
	ColClaimID          = "Claim Id"
	ColClaimType        = "Claim Type"
	ColPolicyNumber     = "Policy Number"
	ColServiceDate      = "Service date"
	ColMemberName       = "Member Name"
	ColRelationship     = "Relationship"
	ColProviderFacility = "Provider facility name"
	ColPrescriptionName = "Prescription name"
	ColProviderBilled   = "Provider billed"
	ColRxCost           = "Rx cost"
	ColPlanPaid         = "Plan paid"
	ColYourShare        = "Your Share"
	ColStatus           = "Status"
)

// Columns is the fixed header of the claims table.
var Columns = []string{
	ColClaimID,
	ColClaimType,
	ColPolicyNumber,
	ColServiceDate,
	ColMemberName,
	ColRelationship,
	ColProviderFacility,
	ColPrescriptionName,
	ColProviderBilled,
	ColRxCost,
	ColPlanPaid,
	ColYourShare,
	ColStatus,
}

// Relationship values recognized by the access policy.
const (
	RelationshipSelf   = "self"
	RelationshipSpouse = "spouse"
	RelationshipChild  = "child"
	RelationshipOther  = "other"
)

// Claim represents one insurance-claim record. Every field is stored as
// text; Provider billed holds the literal "true" or "false", and the
// three money fields hold decimal strings.
type Claim struct {
	ID               string `json:"Claim Id"`
	ClaimType        string `json:"Claim Type"`
	PolicyNumber     string `json:"Policy Number"`
	ServiceDate      string `json:"Service date"`
	MemberName       string `json:"Member Name"`
	Relationship     string `json:"Relationship"`
	ProviderFacility string `json:"Provider facility name"`
	PrescriptionName string `json:"Prescription name"`
	ProviderBilled   string `json:"Provider billed"`
	RxCost           string `json:"Rx cost"`
	PlanPaid         string `json:"Plan paid"`
	YourShare        string `json:"Your Share"`
	Status           string `json:"Status"`
}

// ClaimFilter narrows a claim set. Empty fields impose no constraint.
type ClaimFilter struct {
	ClaimID     string `json:"claim_id"`
	MemberName  string `json:"member_name"`
	ServiceDate string `json:"service_date"`
	Status      string `json:"status"`
}

// IsEmpty reports whether no filter value is set.
func (f ClaimFilter) IsEmpty() bool {
	return f.ClaimID == "" && f.MemberName == "" && f.ServiceDate == "" && f.Status == ""
}

// AppliedFilters echoes back the filter values a caller supplied;
// a filter that was not supplied echoes as null.
type AppliedFilters struct {
	ClaimID     *string `json:"claim_id"`
	MemberName  *string `json:"member_name"`
	ServiceDate *string `json:"service_date"`
	Status      *string `json:"status"`
}

// AvailableFilters lists the distinct non-empty values present in the
// whole store for each filterable column.
type AvailableFilters struct {
	ClaimIDs     []string `json:"claim_ids"`
	MemberNames  []string `json:"member_names"`
	ServiceDates []string `json:"service_dates"`
	Statuses     []string `json:"statuses"`
}

// StatsSummary aggregates a (possibly filtered) claim set. The money
// totals are rounded to two decimal places for output.
type StatsSummary struct {
	TotalClaims      int              `json:"total_claims"`
	TotalRxCost      float64          `json:"total_rx_cost"`
	TotalPlanPaid    float64          `json:"total_plan_paid"`
	TotalYourShare   float64          `json:"total_your_share"`
	StatusCounts     map[string]int   `json:"status_counts"`
	FiltersApplied   AppliedFilters   `json:"filters_applied"`
	AvailableFilters AvailableFilters `json:"available_filters"`
}

// AccessFilterResult is the outcome of applying the access policy to a
// claim set. AccessRules serializes visibility as "yes"/"no".
type AccessFilterResult struct {
	OriginalCount int               `json:"original_count"`
	FilteredCount int               `json:"filtered_count"`
	Claims        []Claim           `json:"claims"`
	AccessRules   map[string]string `json:"access_rules"`
}

// AuditEvent records one claim operation for the audit trail.
type AuditEvent struct {
	ID       string    `json:"id"`
	Action   string    `json:"action"`
	ClaimID  string    `json:"claim_id,omitempty"`
	Actor    string    `json:"actor,omitempty"`
	Outcome  string    `json:"outcome"`
	Recorded time.Time `json:"recorded"`
}

// Audit actions.
const (
	AuditActionCreate = "create"
	AuditActionRead   = "read"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
	AuditActionFilter = "filter"
)

// Audit outcomes.
const (
	AuditOutcomeSuccess = "success"
	AuditOutcomeFailure = "failure"
)
