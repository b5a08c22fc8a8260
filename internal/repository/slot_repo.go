package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"learnerportal/internal/database"
	"learnerportal/internal/ledger"
)

// SlotRecord is one persisted slot value.
type SlotRecord struct {
	Scope string `json:"scope"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SlotRepository stores named string values grouped by scope (one scope per
// device).
type SlotRepository struct {
	db database.DBTX
}

// NewSlotRepository creates a slot repository. db may be a *database.DB or a
// *database.Tx.
func NewSlotRepository(db database.DBTX) *SlotRepository {
	return &SlotRepository{db: db}
}

// Get retrieves a slot value. It returns ledger.ErrSlotNotFound when the slot
// has never been set.
func (r *SlotRepository) Get(scope, name string) (string, error) {
	var value string
	query := `SELECT value FROM slots WHERE scope = ? AND name = ?`
	err := r.db.QueryRow(query, scope, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ledger.ErrSlotNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read slot %s: %w", name, err)
	}
	return value, nil
}

// Set inserts or replaces a slot value.
func (r *SlotRepository) Set(scope, name, value string) error {
	if _, err := r.db.Exec(r.db.GetDialect().UpsertSlot(), scope, name, value); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", name, err)
	}
	return nil
}

// Delete removes a slot. Deleting a missing slot is not an error.
func (r *SlotRepository) Delete(scope, name string) error {
	if _, err := r.db.Exec(`DELETE FROM slots WHERE scope = ? AND name = ?`, scope, name); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", name, err)
	}
	return nil
}

// All returns every slot ordered by scope and name.
func (r *SlotRepository) All() ([]SlotRecord, error) {
	rows, err := r.db.Query(`SELECT scope, name, value FROM slots ORDER BY scope, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close()

	var records []SlotRecord
	for rows.Next() {
		var rec SlotRecord
		if err := rows.Scan(&rec.Scope, &rec.Name, &rec.Value); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Scope returns a ledger.SlotStore bound to one device scope.
func (r *SlotRepository) Scope(scope string) *ScopedSlots {
	return &ScopedSlots{repo: r, scope: scope}
}

// ScopedSlots implements ledger.SlotStore for a single scope.
type ScopedSlots struct {
	repo  *SlotRepository
	scope string
}

var _ ledger.SlotStore = (*ScopedSlots)(nil)

func (s *ScopedSlots) GetSlot(name string) (string, error) {
	return s.repo.Get(s.scope, name)
}

func (s *ScopedSlots) SetSlot(name, value string) error {
	return s.repo.Set(s.scope, name, value)
}

func (s *ScopedSlots) DeleteSlot(name string) error {
	return s.repo.Delete(s.scope, name)
}
