// Package audit records claim operations in an embedded audit trail.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rajcare/claimsight/internal/config"
	"github.com/rajcare/claimsight/pkg/models"
)

// Logger writes audit events asynchronously: Record hands the event to a
// channel and a background goroutine persists it to an embedded SQLite
// database, so a slow or failing audit write never delays or fails the
// claim operation it describes.
type Logger struct {
	config  *config.AuditConfig
	db      *sql.DB
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	eventCh chan models.AuditEvent
}

// NewLogger creates an audit logger storing events under dataDir. A
// disabled logger opens no database and drops every event.
func NewLogger(cfg *config.AuditConfig, dataDir string) (*Logger, error) {
	l := &Logger{
		config:  cfg,
		stopCh:  make(chan struct{}),
		eventCh: make(chan models.AuditEvent, 1000),
	}
	if !cfg.Enabled {
		return l, nil
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dataDir, "audit.db")+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	l.db = db

	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize audit schema: %w", err)
	}
	return l, nil
}

func (l *Logger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_events (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		claim_id TEXT,
		actor TEXT,
		outcome TEXT NOT NULL,
		recorded INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_recorded ON audit_events(recorded);
	CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_events(action);
	`

	_, err := l.db.Exec(schema)
	return err
}

// Start starts the background writer.
func (l *Logger) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running || !l.config.Enabled {
		return nil
	}
	l.running = true
	go l.processEvents(ctx)
	return nil
}

// Stop stops the background writer and closes the database.
func (l *Logger) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		close(l.stopCh)
		l.running = false
	}
	if l.db != nil {
		l.db.Close()
		l.db = nil
	}
}

func (l *Logger) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case event := <-l.eventCh:
			l.insert(event)
		}
	}
}

func (l *Logger) insert(event models.AuditEvent) {
	l.mu.Lock()
	db := l.db
	l.mu.Unlock()
	if db == nil {
		return
	}
	db.Exec(
		`INSERT INTO audit_events (id, action, claim_id, actor, outcome, recorded) VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, event.Action, event.ClaimID, event.Actor, event.Outcome, event.Recorded.Unix(),
	)
}

// Record queues one audit event. When the buffer is full the event is
// dropped rather than blocking the caller.
func (l *Logger) Record(action, claimID, actor, outcome string) *models.AuditEvent {
	if !l.config.Enabled {
		return nil
	}

	event := models.AuditEvent{
		ID:       uuid.New().String(),
		Action:   action,
		ClaimID:  claimID,
		Actor:    actor,
		Outcome:  outcome,
		Recorded: time.Now().UTC(),
	}

	select {
	case l.eventCh <- event:
	default:
	}
	return &event
}

// ListEvents returns the most recent events, newest first.
func (l *Logger) ListEvents(limit int) ([]models.AuditEvent, error) {
	if l.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := l.db.Query(
		`SELECT id, action, claim_id, actor, outcome, recorded FROM audit_events ORDER BY recorded DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var e models.AuditEvent
		var recorded int64
		if err := rows.Scan(&e.ID, &e.Action, &e.ClaimID, &e.Actor, &e.Outcome, &recorded); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Recorded = time.Unix(recorded, 0).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

// Stats returns the total event count and a per-action histogram.
func (l *Logger) Stats() (int, map[string]int, error) {
	if l.db == nil {
		return 0, map[string]int{}, nil
	}

	rows, err := l.db.Query(`SELECT action, COUNT(*) FROM audit_events GROUP BY action`)
	if err != nil {
		return 0, nil, fmt.Errorf("query audit stats: %w", err)
	}
	defer rows.Close()

	total := 0
	byAction := make(map[string]int)
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return 0, nil, fmt.Errorf("scan audit stats: %w", err)
		}
		byAction[action] = count
		total += count
	}
	return total, byAction, rows.Err()
}

// Cleanup deletes events older than the retention period.
func (l *Logger) Cleanup(retention time.Duration) error {
	if l.db == nil {
		return nil
	}
	cutoff := time.Now().Add(-retention).Unix()
	_, err := l.db.Exec(`DELETE FROM audit_events WHERE recorded < ?`, cutoff)
	return err
}
