// Package access implements the relationship-based visibility policy.
package access

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rajcare/claimsight/pkg/models"
)

// defaultRules seed the rules table on first use.
var defaultRules = [][2]string{
	{models.RelationshipSelf, "yes"},
	{models.RelationshipSpouse, "yes"},
	{models.RelationshipChild, "no"},
}

// Policy maps a claimant relationship to a visibility boolean, backed by
// a two-column CSV table (Relationship, access). The claims API never
// mutates the table; administration happens outside this service.
type Policy struct {
	path string
	mu   sync.Mutex
}

// New creates a policy backed by the rules table at path. The table is
// created and seeded with the defaults on first access.
func New(path string) *Policy {
	return &Policy{path: path}
}

// Rules loads the relationship → visible mapping. Relationships are
// lower-cased; a visibility value of "yes" (any case) means visible.
func (p *Policy) Rules() (map[string]bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.Open(p.path)
	if errors.Is(err, os.ErrNotExist) {
		if err := p.seed(); err != nil {
			return nil, err
		}
		f, err = os.Open(p.path)
	}
	if err != nil {
		return nil, fmt.Errorf("open access table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	// Header row
	if _, err := r.Read(); err == io.EOF {
		return map[string]bool{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("read access header: %w", err)
	}

	rules := make(map[string]bool)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read access row: %w", err)
		}
		if len(row) < 2 {
			continue
		}
		relationship := strings.ToLower(strings.TrimSpace(row[0]))
		if relationship == "" {
			continue
		}
		rules[relationship] = strings.ToLower(strings.TrimSpace(row[1])) == "yes"
	}
	return rules, nil
}

// Filter retains each claim whose lower-cased relationship the rules mark
// visible. A relationship the rule set does not know is treated as
// visible; that permissive default matches the table's read-only role as
// a deny list. Input ordering is preserved. The loaded rules are returned
// alongside the filtered set so callers can echo them.
func (p *Policy) Filter(claims []models.Claim) ([]models.Claim, map[string]bool, error) {
	rules, err := p.Rules()
	if err != nil {
		return nil, nil, err
	}

	var out []models.Claim
	for _, c := range claims {
		relationship := strings.ToLower(strings.TrimSpace(c.Relationship))
		if visible, known := rules[relationship]; known && !visible {
			continue
		}
		out = append(out, c)
	}
	return out, rules, nil
}

func (p *Policy) seed() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp := p.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create access table: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Relationship", "access"}); err != nil {
		f.Close()
		return fmt.Errorf("write access header: %w", err)
	}
	for _, rule := range defaultRules {
		if err := w.Write(rule[:]); err != nil {
			f.Close()
			return fmt.Errorf("write access row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush access table: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close access table: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("replace access table: %w", err)
	}
	return nil
}
