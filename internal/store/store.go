package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rajcare/claimsight/pkg/models"
)

// ErrNotFound is returned when no claim matches the requested id.
var ErrNotFound = errors.New("claim not found")

// ValidationError reports a required field that was missing or blank
// on create.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "Missing required field: " + e.Field
}

// requiredFields are checked on create, in order; the first missing one
// is the one reported.
var requiredFields = []string{
	models.ColClaimType,
	models.ColPolicyNumber,
	models.ColMemberName,
	models.ColStatus,
}

// Store is the durable claims table: a header-first CSV with the thirteen
// fixed columns. Every mutating operation performs a full read-modify-write
// cycle under a single-writer lock, so concurrent mutations serialize
// instead of racing on the shared file. Writes go to a temp file that is
// renamed into place, so a crashed write never leaves a torn table.
type Store struct {
	path string
	mu   sync.RWMutex

	// lastID is the highest claim id ever observed or assigned by this
	// store, so deleting the record with the max id never lowers the
	// next id.
	lastID int
}

// New creates a store backed by the CSV table at path. The table itself
// is created lazily on first access.
func New(path string) *Store {
	return &Store{path: path}
}

// List returns every persisted claim in file order. Rows with a blank
// Claim Id are not valid records and are excluded. An absent table is
// initialized with headers first.
func (s *Store) List() ([]models.Claim, error) {
	s.mu.RLock()
	claims, err := s.readAll()
	s.mu.RUnlock()
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		return claims, err
	}

	// First use: create the empty table under the write lock.
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAllOrInit()
}

// Get returns the claim whose Claim Id exactly matches id.
func (s *Store) Get(id string) (models.Claim, error) {
	claims, err := s.List()
	if err != nil {
		return models.Claim{}, err
	}
	for _, c := range claims {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Claim{}, ErrNotFound
}

// Create validates the input, assigns the next claim id, appends the new
// record and rewrites the table. Input keys are the canonical column
// names; values may be strings, booleans or numbers and are coerced to
// their canonical text form.
func (s *Store) Create(input map[string]any) (models.Claim, error) {
	for _, field := range requiredFields {
		v, ok := input[field]
		if !ok || strings.TrimSpace(toString(v)) == "" {
			return models.Claim{}, &ValidationError{Field: field}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	claims, err := s.readAllOrInit()
	if err != nil {
		return models.Claim{}, err
	}

	claim := models.Claim{
		ID:             s.nextID(claims),
		ProviderBilled: "false",
		RxCost:         "0",
		PlanPaid:       "0",
		YourShare:      "0",
		Status:         "Pending",
	}
	for _, col := range models.Columns {
		if col == models.ColClaimID {
			continue
		}
		if v, ok := input[col]; ok {
			setField(&claim, col, v)
		}
	}

	claims = append(claims, claim)
	if err := s.writeAll(claims); err != nil {
		return models.Claim{}, err
	}
	return claim, nil
}

// Update overwrites every field present in input except the claim id,
// leaves absent fields untouched, and rewrites the table.
func (s *Store) Update(id string, input map[string]any) (models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claims, err := s.readAllOrInit()
	if err != nil {
		return models.Claim{}, err
	}

	idx := -1
	for i, c := range claims {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Claim{}, ErrNotFound
	}

	claim := claims[idx]
	for _, col := range models.Columns {
		if col == models.ColClaimID {
			continue
		}
		if v, ok := input[col]; ok {
			setField(&claim, col, v)
		}
	}

	claims[idx] = claim
	if err := s.writeAll(claims); err != nil {
		return models.Claim{}, err
	}
	return claim, nil
}

// Delete removes the claim with the given id and rewrites the table.
// There is no tombstone; the record is fully erased.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	claims, err := s.readAllOrInit()
	if err != nil {
		return err
	}

	// Remember the ids being dropped so they are never handed out again.
	if m := maxID(claims); m > s.lastID {
		s.lastID = m
	}

	var remaining []models.Claim
	found := false
	for _, c := range claims {
		if c.ID == id {
			found = true
			continue
		}
		remaining = append(remaining, c)
	}
	if !found {
		return ErrNotFound
	}
	return s.writeAll(remaining)
}

// nextID returns one more than the highest id ever seen: the max numeric
// id in the table or, when higher, the high-water mark this store
// remembers from earlier assignments and deletions. "1" for a store that
// never held a record. Ids are never reused.
func (s *Store) nextID(claims []models.Claim) string {
	if m := maxID(claims); m > s.lastID {
		s.lastID = m
	}
	s.lastID++
	return strconv.Itoa(s.lastID)
}

func maxID(claims []models.Claim) int {
	max := 0
	for _, c := range claims {
		if n, err := strconv.Atoi(strings.TrimSpace(c.ID)); err == nil && n > max {
			max = n
		}
	}
	return max
}

// readAllOrInit reads the table, creating it with headers first when it
// does not exist yet. The caller must hold the write lock.
func (s *Store) readAllOrInit() ([]models.Claim, error) {
	claims, err := s.readAll()
	if errors.Is(err, os.ErrNotExist) {
		if err := s.writeAll(nil); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return claims, err
}

func (s *Store) readAll() ([]models.Claim, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open claims table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	// Header row
	if _, err := r.Read(); err == io.EOF {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("read claims header: %w", err)
	}

	var claims []models.Claim
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read claims row: %w", err)
		}
		c := claimFromRow(row)
		if strings.TrimSpace(c.ID) == "" {
			continue
		}
		claims = append(claims, c)
	}
	return claims, nil
}

func (s *Store) writeAll(claims []models.Claim) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create claims table: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(models.Columns); err != nil {
		f.Close()
		return fmt.Errorf("write claims header: %w", err)
	}
	for _, c := range claims {
		if err := w.Write(rowFromClaim(c)); err != nil {
			f.Close()
			return fmt.Errorf("write claims row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush claims table: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close claims table: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace claims table: %w", err)
	}
	return nil
}

func claimFromRow(row []string) models.Claim {
	// Short rows read back as empty trailing fields.
	padded := make([]string, len(models.Columns))
	copy(padded, row)
	return models.Claim{
		ID:               padded[0],
		ClaimType:        padded[1],
		PolicyNumber:     padded[2],
		ServiceDate:      padded[3],
		MemberName:       padded[4],
		Relationship:     padded[5],
		ProviderFacility: padded[6],
		PrescriptionName: padded[7],
		ProviderBilled:   padded[8],
		RxCost:           padded[9],
		PlanPaid:         padded[10],
		YourShare:        padded[11],
		Status:           padded[12],
	}
}

func rowFromClaim(c models.Claim) []string {
	return []string{
		c.ID,
		c.ClaimType,
		c.PolicyNumber,
		c.ServiceDate,
		c.MemberName,
		c.Relationship,
		c.ProviderFacility,
		c.PrescriptionName,
		c.ProviderBilled,
		c.RxCost,
		c.PlanPaid,
		c.YourShare,
		c.Status,
	}
}

func setField(c *models.Claim, col string, v any) {
	switch col {
	case models.ColClaimType:
		c.ClaimType = toString(v)
	case models.ColPolicyNumber:
		c.PolicyNumber = toString(v)
	case models.ColServiceDate:
		c.ServiceDate = toString(v)
	case models.ColMemberName:
		c.MemberName = toString(v)
	case models.ColRelationship:
		c.Relationship = toString(v)
	case models.ColProviderFacility:
		c.ProviderFacility = toString(v)
	case models.ColPrescriptionName:
		c.PrescriptionName = toString(v)
	case models.ColProviderBilled:
		c.ProviderBilled = strconv.FormatBool(NormalizeBool(v))
	case models.ColRxCost:
		c.RxCost = toString(v)
	case models.ColPlanPaid:
		c.PlanPaid = toString(v)
	case models.ColYourShare:
		c.YourShare = toString(v)
	case models.ColStatus:
		c.Status = toString(v)
	}
}

// NormalizeBool coerces heterogeneous truthy input to a strict boolean:
// a real boolean true or any case variant of the string "true" is true,
// everything else is false. Shared by the create and update paths.
func NormalizeBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return strings.EqualFold(strings.TrimSpace(toString(v)), "true")
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		// JSON numbers decode as float64; keep "3" over "3.000000".
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
