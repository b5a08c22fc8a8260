package ledger

import (
	"errors"
	"log"
)

// Slot names used in the durable key-value store.
const (
	ProgressSlot = "simpledata_progress"
	EmailSlot    = "simpledata_user_email"
)

// ErrSlotNotFound is returned by a SlotStore when a slot has never been set.
var ErrSlotNotFound = errors.New("slot not found")

// SlotStore is a durable key-value store scoped to a single device.
type SlotStore interface {
	GetSlot(key string) (string, error)
	SetSlot(key, value string) error
	DeleteSlot(key string) error
}

// Store persists the active ledger and the signed-in learner's email.
// Read failures degrade to "nothing saved"; write failures are returned so
// callers can log them, but never invalidate the in-memory ledger.
type Store struct {
	slots SlotStore
}

// NewStore creates a ledger store over the given slots.
func NewStore(slots SlotStore) *Store {
	return &Store{slots: slots}
}

// Persist writes the ledger to the progress slot.
func (s *Store) Persist(l Ledger) error {
	return s.slots.SetSlot(ProgressSlot, l.Encode())
}

// Load returns the saved ledger. A missing, unreadable or corrupt value is
// treated as an empty ledger.
func (s *Store) Load() Ledger {
	value, err := s.slots.GetSlot(ProgressSlot)
	if err != nil {
		if !errors.Is(err, ErrSlotNotFound) {
			log.Printf("Warning: failed to read saved progress: %v", err)
		}
		return New()
	}

	l, dropped, err := Decode([]byte(value))
	if err != nil {
		log.Printf("Warning: ignoring corrupt saved progress: %v", err)
		return New()
	}
	if dropped > 0 {
		log.Printf("Warning: dropped %d non-boolean entries from saved progress", dropped)
	}
	return l
}

// SeedFromRemote replaces the saved ledger with a copy of remote. No field is
// merged with what was stored before.
func (s *Store) SeedFromRemote(remote Ledger) (Ledger, error) {
	seeded := remote.Clone()
	return seeded, s.Persist(seeded)
}

// Clear removes the saved ledger.
func (s *Store) Clear() error {
	return s.slots.DeleteSlot(ProgressSlot)
}

// RememberEmail records the signed-in learner so the session can be restored.
func (s *Store) RememberEmail(email string) error {
	return s.slots.SetSlot(EmailSlot, email)
}

// RememberedEmail returns the saved email, or "" when none is saved.
func (s *Store) RememberedEmail() string {
	value, err := s.slots.GetSlot(EmailSlot)
	if err != nil {
		if !errors.Is(err, ErrSlotNotFound) {
			log.Printf("Warning: failed to read saved learner email: %v", err)
		}
		return ""
	}
	return value
}

// ForgetEmail removes the saved email.
func (s *Store) ForgetEmail() error {
	return s.slots.DeleteSlot(EmailSlot)
}
