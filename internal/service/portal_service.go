package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"learnerportal/internal/catalog"
	"learnerportal/internal/feeds"
	"learnerportal/internal/ledger"
	"learnerportal/internal/models"
	"learnerportal/internal/publish"
)

var (
	ErrLearnerNotFound = errors.New("learner not found")
	ErrNotSignedIn     = errors.New("not signed in")
	ErrSessionNotFound = errors.New("class not found")
)

// Ingester produces directory snapshots.
type Ingester interface {
	Ingest(ctx context.Context) feeds.Snapshot
}

// Publisher sends a learner's ledger to the remote store.
type Publisher interface {
	Publish(ctx context.Context, learner models.Learner, l ledger.Ledger) publish.Outcome
}

// CompletionNotifier is told when a learner completes the whole catalog.
type CompletionNotifier interface {
	SendCompletionEmail(ctx context.Context, toEmail, toName string, sessions int) error
}

// SlotOpener returns the durable slots for one device.
type SlotOpener func(deviceID string) ledger.SlotStore

// Dashboard summarizes the signed-in learner.
type Dashboard struct {
	Learner   models.Learner `json:"learner"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Percent   int            `json:"percent"`
}

// deviceState is the identity and active ledger of one device. The ledger
// value is replaced, never mutated, so readers may keep it after unlocking.
type deviceState struct {
	id     string
	mu     sync.Mutex
	store  *ledger.Store
	email  string
	active ledger.Ledger

	// lastUsed is guarded by PortalService.statesMu.
	lastUsed time.Time
}

// PortalService owns the shared directory snapshot and the per-device
// progress state.
type PortalService struct {
	ingestor  Ingester
	publisher Publisher
	notifier  CompletionNotifier
	catalog   *catalog.Catalog
	openSlots SlotOpener
	debug     bool

	snapMu   sync.RWMutex
	snapshot feeds.Snapshot
	loaded   bool

	// states holds signed-in devices only. Signed-out devices are rebuilt
	// from their slots on every call.
	statesMu sync.Mutex
	states   map[string]*deviceState
	now      func() time.Time

	publishes sync.WaitGroup
}

// NewPortalService creates a portal service. notifier may be nil.
func NewPortalService(ingestor Ingester, publisher Publisher, notifier CompletionNotifier, c *catalog.Catalog, openSlots SlotOpener, debug bool) *PortalService {
	return &PortalService{
		ingestor:  ingestor,
		publisher: publisher,
		notifier:  notifier,
		catalog:   c,
		openSlots: openSlots,
		debug:     debug,
		snapshot:  feeds.EmptySnapshot(),
		states:    make(map[string]*deviceState),
		now:       time.Now,
	}
}

// Catalog returns the course catalog.
func (s *PortalService) Catalog() *catalog.Catalog {
	return s.catalog
}

// Refresh re-reads every feed. A failed read replaces the directory only
// when nothing has been loaded yet; otherwise the previous snapshot is kept.
func (s *PortalService) Refresh(ctx context.Context) feeds.Report {
	snap := s.ingestor.Ingest(ctx)

	s.snapMu.Lock()
	defer s.snapMu.Unlock()

	if snap.Report.Failed && s.loaded {
		log.Printf("Warning: feed refresh failed, keeping previous directory (%d learners)", len(s.snapshot.Learners))
		return snap.Report
	}
	s.snapshot = snap
	s.loaded = !snap.Report.Failed
	log.Printf("Directory loaded: %d learners, %d videos", len(snap.Learners), len(snap.Videos))
	return snap.Report
}

// StartRefresher re-ingests the feeds every interval until ctx is done.
// A non-positive interval disables it.
func (s *PortalService) StartRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Refresh(ctx)
			}
		}
	}()
}

// Snapshot returns the current directory snapshot.
func (s *PortalService) Snapshot() feeds.Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snapshot
}

// Learners lists directory entries whose name or role matches query.
func (s *PortalService) Learners(query string) []models.Learner {
	snap := s.Snapshot()
	out := make([]models.Learner, 0, len(snap.Learners))
	for _, l := range snap.Learners {
		if l.Matches(query) {
			out = append(out, l)
		}
	}
	return out
}

// state returns the device's state. A device whose remembered learner can be
// restored is kept; otherwise the state is transient and the restore is
// retried on the next call.
func (s *PortalService) state(deviceID string) *deviceState {
	s.statesMu.Lock()
	st, ok := s.states[deviceID]
	if ok {
		st.lastUsed = s.now()
	}
	s.statesMu.Unlock()
	if ok {
		return st
	}

	st = &deviceState{id: deviceID, store: ledger.NewStore(s.openSlots(deviceID)), active: ledger.New()}
	st.mu.Lock()
	s.restore(st)
	restored := st.email != ""
	st.mu.Unlock()

	if restored {
		return s.keep(st)
	}
	return st
}

// keep registers st, or returns the state another request registered first.
func (s *PortalService) keep(st *deviceState) *deviceState {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	if existing, ok := s.states[st.id]; ok {
		existing.lastUsed = s.now()
		return existing
	}
	st.lastUsed = s.now()
	s.states[st.id] = st
	return st
}

// forget drops st from the kept states.
func (s *PortalService) forget(st *deviceState) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	if s.states[st.id] == st {
		delete(s.states, st.id)
	}
}

// EvictIdle drops kept device states unused for longer than idle and returns
// how many were dropped. Their slots are untouched.
func (s *PortalService) EvictIdle(idle time.Duration) int {
	cutoff := s.now().Add(-idle)
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	evicted := 0
	for id, st := range s.states {
		if st.lastUsed.Before(cutoff) {
			delete(s.states, id)
			evicted++
		}
	}
	return evicted
}

// StartEvictor runs EvictIdle until ctx is done. idle should be at least the
// device cookie lifetime, so an evicted device can never be presented again.
func (s *PortalService) StartEvictor(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}
	interval := idle / 2
	if interval > time.Hour {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.EvictIdle(idle); n > 0 && s.debug {
					log.Printf("[DEBUG] Evicted %d idle device states", n)
				}
			}
		}
	}()
}

// deviceCount returns how many device states are kept.
func (s *PortalService) deviceCount() int {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	return len(s.states)
}

// restore signs the remembered learner back in. The caller holds st.mu.
func (s *PortalService) restore(st *deviceState) {
	email := st.store.RememberedEmail()
	if email == "" {
		return
	}
	snap := s.Snapshot()
	if _, ok := snap.Find(email); !ok {
		if s.debug {
			log.Printf("[DEBUG] Remembered learner %s is not in the directory", email)
		}
		return
	}

	st.email = email
	if remote, ok := snap.RemoteProgress[email]; ok {
		seeded, err := st.store.SeedFromRemote(remote)
		if err != nil {
			log.Printf("Warning: failed to save restored progress for %s: %v", email, err)
		}
		st.active = seeded
		return
	}
	st.active = st.store.Load()
}

// learnerFor resolves the device's learner against the current directory.
// The caller holds st.mu.
func (s *PortalService) learnerFor(st *deviceState) (models.Learner, bool) {
	if st.email == "" {
		return models.Learner{}, false
	}
	return s.Snapshot().Find(st.email)
}

// Session returns the learner signed in on the device.
func (s *PortalService) Session(deviceID string) (models.Learner, bool) {
	st := s.state(deviceID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return s.learnerFor(st)
}

// SignIn makes email the device's learner. A remote snapshot for the learner
// replaces the local ledger outright. Without one, the local ledger is kept
// only if it already belonged to this learner.
func (s *PortalService) SignIn(deviceID, email string) (models.Learner, error) {
	snap := s.Snapshot()
	learner, ok := snap.Find(email)
	if !ok {
		return models.Learner{}, ErrLearnerNotFound
	}

	st := s.keep(s.state(deviceID))
	st.mu.Lock()
	defer st.mu.Unlock()

	previous := st.store.RememberedEmail()
	switch remote, hasRemote := snap.RemoteProgress[email]; {
	case hasRemote:
		seeded, err := st.store.SeedFromRemote(remote)
		if err != nil {
			log.Printf("Warning: failed to save seeded progress for %s: %v", email, err)
		}
		st.active = seeded
	case previous == email:
		st.active = st.store.Load()
	default:
		if err := st.store.Clear(); err != nil {
			log.Printf("Warning: failed to clear saved progress: %v", err)
		}
		st.active = ledger.New()
	}

	if err := st.store.RememberEmail(email); err != nil {
		log.Printf("Warning: failed to remember learner %s: %v", email, err)
	}
	st.email = email

	log.Printf("Learner signed in: %s (%d sessions completed)", email, st.active.CompletedCount())
	return learner, nil
}

// SignOut clears the device's identity and local ledger. The remote store
// is left untouched.
func (s *PortalService) SignOut(deviceID string) {
	st := s.state(deviceID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.store.Clear(); err != nil {
		log.Printf("Warning: failed to clear saved progress: %v", err)
	}
	if err := st.store.ForgetEmail(); err != nil {
		log.Printf("Warning: failed to forget learner email: %v", err)
	}
	st.email = ""
	st.active = ledger.New()
	s.forget(st)
}

// FindSession returns the catalog session for week and day.
func (s *PortalService) FindSession(week int, day string) (models.Session, error) {
	session, ok := s.catalog.Find(week, day)
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Toggle flips a session's completion for the device's learner and returns
// the new value. The local ledger is updated and saved before returning; the
// remote publish runs in the background and its outcome is only logged.
func (s *PortalService) Toggle(deviceID string, week int, day string) (bool, error) {
	session, err := s.FindSession(week, day)
	if err != nil {
		return false, err
	}

	st := s.state(deviceID)
	st.mu.Lock()
	learner, ok := s.learnerFor(st)
	if !ok {
		st.mu.Unlock()
		return false, ErrNotSignedIn
	}
	next, value := ledger.Toggle(st.active, week, session.Day)
	st.active = next
	if err := st.store.Persist(next); err != nil {
		log.Printf("Warning: failed to save progress for %s: %v", learner.Email, err)
	}
	st.mu.Unlock()

	if s.debug {
		log.Printf("[DEBUG] Toggled week %d %s for %s: %t", week, session.Day, learner.Email, value)
	}

	s.publishInBackground(learner, next)
	if value && s.catalog.CountCompleted(next) == s.catalog.TotalSessions() {
		s.notifyCompletion(learner)
	}
	return value, nil
}

func (s *PortalService) publishInBackground(learner models.Learner, l ledger.Ledger) {
	s.publishes.Add(1)
	go func() {
		defer s.publishes.Done()
		outcome := s.publisher.Publish(context.Background(), learner, l)
		if s.debug {
			log.Printf("[DEBUG] Publish for %s: %s", learner.Email, outcome)
		}
	}()
}

func (s *PortalService) notifyCompletion(learner models.Learner) {
	if s.notifier == nil {
		return
	}
	total := s.catalog.TotalSessions()
	s.publishes.Add(1)
	go func() {
		defer s.publishes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.notifier.SendCompletionEmail(ctx, learner.Email, learner.Name, total); err != nil {
			log.Printf("Warning: failed to send completion email to %s: %v", learner.Email, err)
		}
	}()
}

// Wait blocks until background publishes and notices have finished.
func (s *PortalService) Wait() {
	s.publishes.Wait()
}

// Classes joins the catalog with the video directory and the device's
// ledger. A device with no learner sees every session as not completed.
func (s *PortalService) Classes(deviceID string) []models.WeekView {
	st := s.state(deviceID)
	st.mu.Lock()
	l := st.active
	if st.email == "" {
		l = ledger.New()
	}
	st.mu.Unlock()

	return s.catalog.Resolve(s.Snapshot().Videos, l)
}

// Dashboard summarizes the device's learner using the local ledger.
func (s *PortalService) Dashboard(deviceID string) (Dashboard, error) {
	st := s.state(deviceID)
	st.mu.Lock()
	learner, ok := s.learnerFor(st)
	l := st.active
	st.mu.Unlock()
	if !ok {
		return Dashboard{}, ErrNotSignedIn
	}

	summary := models.ProgressSummary{
		Completed: s.catalog.CountCompleted(l),
		Total:     s.catalog.TotalSessions(),
	}
	return Dashboard{
		Learner:   learner,
		Completed: summary.Completed,
		Total:     summary.Total,
		Percent:   summary.Percent(),
	}, nil
}
