package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"learnerportal/internal/catalog"
	"learnerportal/internal/feeds"
	"learnerportal/internal/ledger"
	"learnerportal/internal/models"
	"learnerportal/internal/publish"
)

type fakeIngester struct {
	snap  feeds.Snapshot
	calls int
}

func (f *fakeIngester) Ingest(ctx context.Context) feeds.Snapshot {
	f.calls++
	return f.snap
}

type publishCall struct {
	email  string
	ledger ledger.Ledger
}

type fakePublisher struct {
	mu    sync.Mutex
	calls []publishCall
}

func (f *fakePublisher) Publish(ctx context.Context, learner models.Learner, l ledger.Ledger) publish.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, publishCall{email: learner.Email, ledger: l})
	return publish.Dispatched
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) SendCompletionEmail(ctx context.Context, toEmail, toName string, sessions int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, toEmail)
	return nil
}

// memorySlots keeps slots for every device in one map.
type memorySlots struct {
	mu     sync.Mutex
	values map[string]map[string]string
}

func (m *memorySlots) open(deviceID string) ledger.SlotStore {
	return &deviceSlots{parent: m, device: deviceID}
}

type deviceSlots struct {
	parent *memorySlots
	device string
}

func (d *deviceSlots) GetSlot(key string) (string, error) {
	d.parent.mu.Lock()
	defer d.parent.mu.Unlock()
	v, ok := d.parent.values[d.device][key]
	if !ok {
		return "", ledger.ErrSlotNotFound
	}
	return v, nil
}

func (d *deviceSlots) SetSlot(key, value string) error {
	d.parent.mu.Lock()
	defer d.parent.mu.Unlock()
	if d.parent.values[d.device] == nil {
		d.parent.values[d.device] = make(map[string]string)
	}
	d.parent.values[d.device][key] = value
	return nil
}

func (d *deviceSlots) DeleteSlot(key string) error {
	d.parent.mu.Lock()
	defer d.parent.mu.Unlock()
	delete(d.parent.values[d.device], key)
	return nil
}

func testSnapshot() feeds.Snapshot {
	snap := feeds.EmptySnapshot()
	snap.Learners = []models.Learner{
		models.NewLearner("ana@example.com", "Ana Pérez", "Analista", models.Skills{Prompting: 80}, 2),
		models.NewLearner("luis@example.com", "Luis Gómez", "", models.Skills{}, 0),
	}
	snap.Videos["1-lunes"] = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	snap.RemoteProgress["ana@example.com"] = ledger.Ledger{"s1-lunes": true, "s1-martes": true}
	return snap
}

type portalFixture struct {
	svc       *PortalService
	ingester  *fakeIngester
	publisher *fakePublisher
	notifier  *fakeNotifier
	slots     *memorySlots
}

func newPortalFixture(t *testing.T) *portalFixture {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}
	f := &portalFixture{
		ingester:  &fakeIngester{snap: testSnapshot()},
		publisher: &fakePublisher{},
		notifier:  &fakeNotifier{},
		slots:     &memorySlots{values: make(map[string]map[string]string)},
	}
	f.svc = NewPortalService(f.ingester, f.publisher, f.notifier, c, f.slots.open, false)
	f.svc.Refresh(context.Background())
	return f
}

func TestSignInSeedsFromRemote(t *testing.T) {
	f := newPortalFixture(t)

	// Leftover local progress from another learner on this device.
	f.slots.open("dev").SetSlot(ledger.ProgressSlot, `{"s4-viernes":true}`)
	f.slots.open("dev").SetSlot(ledger.EmailSlot, "luis@example.com")

	learner, err := f.svc.SignIn("dev", "ana@example.com")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if learner.Name != "Ana Pérez" {
		t.Errorf("learner = %+v", learner)
	}

	d, err := f.svc.Dashboard("dev")
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if d.Completed != 2 || d.Total != 20 || d.Percent != 10 {
		t.Errorf("Dashboard() = %+v, want 2/20 (10%%)", d)
	}

	saved, _ := f.slots.open("dev").GetSlot(ledger.ProgressSlot)
	if saved != `{"s1-lunes":true,"s1-martes":true}` {
		t.Errorf("saved progress = %s, want the remote snapshot only", saved)
	}
}

func TestSignInWithoutRemoteSnapshot(t *testing.T) {
	tests := []struct {
		name          string
		rememberedFor string
		wantCompleted int
	}{
		{name: "same learner keeps local progress", rememberedFor: "luis@example.com", wantCompleted: 1},
		{name: "different learner starts empty", rememberedFor: "ana@example.com", wantCompleted: 0},
		{name: "fresh device starts empty", rememberedFor: "", wantCompleted: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPortalFixture(t)
			delete(f.ingester.snap.RemoteProgress, "ana@example.com")
			f.svc.Refresh(context.Background())

			slots := f.slots.open("dev")
			slots.SetSlot(ledger.ProgressSlot, `{"s2-lunes":true}`)
			if tt.rememberedFor != "" {
				slots.SetSlot(ledger.EmailSlot, tt.rememberedFor)
			}

			if _, err := f.svc.SignIn("dev", "luis@example.com"); err != nil {
				t.Fatalf("SignIn() error = %v", err)
			}
			d, err := f.svc.Dashboard("dev")
			if err != nil {
				t.Fatalf("Dashboard() error = %v", err)
			}
			if d.Completed != tt.wantCompleted {
				t.Errorf("Completed = %d, want %d", d.Completed, tt.wantCompleted)
			}
		})
	}
}

func TestSignInUnknownLearner(t *testing.T) {
	f := newPortalFixture(t)
	if _, err := f.svc.SignIn("dev", "nadie@example.com"); !errors.Is(err, ErrLearnerNotFound) {
		t.Errorf("SignIn() error = %v, want ErrLearnerNotFound", err)
	}
	if _, err := f.svc.SignIn("dev", "ANA@example.com"); !errors.Is(err, ErrLearnerNotFound) {
		t.Errorf("emails are compared exactly, got %v", err)
	}
}

func TestToggleUpdatesLocallyAndPublishes(t *testing.T) {
	f := newPortalFixture(t)
	if _, err := f.svc.SignIn("dev", "luis@example.com"); err != nil {
		t.Fatal(err)
	}

	value, err := f.svc.Toggle("dev", 1, "LUNES ")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !value {
		t.Error("first toggle should mark the session complete")
	}

	weeks := f.svc.Classes("dev")
	first := weeks[0].Sessions[0]
	if !first.IsCompleted || first.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("first session = %+v, want completed with video", first)
	}

	value, err = f.svc.Toggle("dev", 1, "Lunes")
	if err != nil || value {
		t.Errorf("second Toggle() = %t, %v; want false", value, err)
	}

	f.svc.Wait()
	if len(f.publisher.calls) != 2 {
		t.Fatalf("publish calls = %d, want one per toggle", len(f.publisher.calls))
	}
	for _, call := range f.publisher.calls {
		if call.email != "luis@example.com" {
			t.Errorf("published for %s", call.email)
		}
	}

	saved, _ := f.slots.open("dev").GetSlot(ledger.ProgressSlot)
	if saved != `{"s1-lunes":false}` {
		t.Errorf("saved progress = %s", saved)
	}
}

func TestToggleErrors(t *testing.T) {
	f := newPortalFixture(t)

	if _, err := f.svc.Toggle("dev", 1, "Lunes"); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("Toggle() while signed out error = %v, want ErrNotSignedIn", err)
	}

	f.svc.SignIn("dev", "luis@example.com")
	if _, err := f.svc.Toggle("dev", 9, "Lunes"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Toggle() unknown week error = %v, want ErrSessionNotFound", err)
	}
	if _, err := f.svc.Toggle("dev", 1, "Sábado"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Toggle() unknown day error = %v, want ErrSessionNotFound", err)
	}

	f.svc.Wait()
	if len(f.publisher.calls) != 0 {
		t.Errorf("failed toggles should not publish, got %d calls", len(f.publisher.calls))
	}
}

func TestCompletionNotice(t *testing.T) {
	f := newPortalFixture(t)
	f.svc.SignIn("dev", "luis@example.com")

	for _, w := range f.svc.Catalog().Weeks {
		for _, s := range w.Sessions {
			if _, err := f.svc.Toggle("dev", w.ID, s.Day); err != nil {
				t.Fatalf("Toggle(%d, %s) error = %v", w.ID, s.Day, err)
			}
		}
	}
	f.svc.Wait()

	if len(f.notifier.sent) != 1 || f.notifier.sent[0] != "luis@example.com" {
		t.Errorf("completion notices = %v, want exactly one", f.notifier.sent)
	}
}

func TestSignOutClearsLocalState(t *testing.T) {
	f := newPortalFixture(t)
	f.svc.SignIn("dev", "ana@example.com")
	f.svc.SignOut("dev")

	if _, ok := f.svc.Session("dev"); ok {
		t.Error("Session() should be empty after sign-out")
	}
	if _, err := f.slots.open("dev").GetSlot(ledger.ProgressSlot); !errors.Is(err, ledger.ErrSlotNotFound) {
		t.Errorf("progress slot should be cleared, got %v", err)
	}
	if _, err := f.slots.open("dev").GetSlot(ledger.EmailSlot); !errors.Is(err, ledger.ErrSlotNotFound) {
		t.Errorf("email slot should be cleared, got %v", err)
	}
	for _, w := range f.svc.Classes("dev") {
		for _, s := range w.Sessions {
			if s.IsCompleted {
				t.Errorf("week %d %s still completed after sign-out", s.Week, s.Day)
			}
		}
	}
	if _, ok := f.ingester.snap.RemoteProgress["ana@example.com"]; !ok {
		t.Error("remote snapshot must survive sign-out")
	}
}

func TestSessionRestore(t *testing.T) {
	f := newPortalFixture(t)
	slots := f.slots.open("dev")
	slots.SetSlot(ledger.EmailSlot, "ana@example.com")
	slots.SetSlot(ledger.ProgressSlot, `{"s3-lunes":true}`)

	learner, ok := f.svc.Session("dev")
	if !ok || learner.Email != "ana@example.com" {
		t.Fatalf("Session() = %+v, %t; want ana restored", learner, ok)
	}
	d, _ := f.svc.Dashboard("dev")
	if d.Completed != 2 {
		t.Errorf("restored Completed = %d, want the remote snapshot's 2", d.Completed)
	}
}

func TestSessionRestoreUnknownEmail(t *testing.T) {
	f := newPortalFixture(t)
	f.slots.open("dev").SetSlot(ledger.EmailSlot, "gone@example.com")

	if _, ok := f.svc.Session("dev"); ok {
		t.Error("a remembered email missing from the directory should not restore")
	}
}

func TestSessionRestoreAfterFailedFirstLoad(t *testing.T) {
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}
	failed := feeds.EmptySnapshot()
	failed.Report.Failed = true
	ingester := &fakeIngester{snap: failed}
	slots := &memorySlots{values: make(map[string]map[string]string)}
	svc := NewPortalService(ingester, &fakePublisher{}, nil, c, slots.open, false)

	svc.Refresh(context.Background())
	slots.open("dev").SetSlot(ledger.EmailSlot, "ana@example.com")
	if _, ok := svc.Session("dev"); ok {
		t.Fatal("Session() should be empty while the directory is empty")
	}

	ingester.snap = testSnapshot()
	svc.Refresh(context.Background())

	learner, ok := svc.Session("dev")
	if !ok || learner.Email != "ana@example.com" {
		t.Errorf("Session() after refresh = %+v, %t; want ana restored", learner, ok)
	}
}

func TestSignedOutDevicesAreNotKept(t *testing.T) {
	f := newPortalFixture(t)

	for i := 0; i < 100; i++ {
		device := fmt.Sprintf("anon-%d", i)
		f.svc.Classes(device)
		f.svc.Session(device)
		if _, err := f.svc.Dashboard(device); !errors.Is(err, ErrNotSignedIn) {
			t.Fatalf("Dashboard(%s) error = %v, want ErrNotSignedIn", device, err)
		}
	}
	if got := f.svc.deviceCount(); got != 0 {
		t.Errorf("deviceCount() = %d after anonymous requests, want 0", got)
	}

	f.svc.SignIn("dev", "luis@example.com")
	if got := f.svc.deviceCount(); got != 1 {
		t.Errorf("deviceCount() = %d after sign-in, want 1", got)
	}
	f.svc.SignOut("dev")
	if got := f.svc.deviceCount(); got != 0 {
		t.Errorf("deviceCount() = %d after sign-out, want 0", got)
	}
}

func TestEvictIdle(t *testing.T) {
	f := newPortalFixture(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	f.svc.SignIn("old", "luis@example.com")
	if _, err := f.svc.Toggle("old", 2, "Lunes"); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	f.svc.Wait()

	now = now.Add(2 * time.Hour)
	f.svc.SignIn("recent", "luis@example.com")

	if n := f.svc.EvictIdle(time.Hour); n != 1 {
		t.Errorf("EvictIdle() = %d, want 1", n)
	}
	if got := f.svc.deviceCount(); got != 1 {
		t.Errorf("deviceCount() = %d, want 1", got)
	}

	// An evicted device is rebuilt from its slots.
	learner, ok := f.svc.Session("old")
	if !ok || learner.Email != "luis@example.com" {
		t.Fatalf("Session() after eviction = %+v, %t", learner, ok)
	}
	d, _ := f.svc.Dashboard("old")
	if d.Completed != 1 {
		t.Errorf("Completed after eviction = %d, want the saved toggle", d.Completed)
	}
}

func TestRefreshKeepsDirectoryOnFailure(t *testing.T) {
	f := newPortalFixture(t)

	failed := feeds.EmptySnapshot()
	failed.Report.Failed = true
	f.ingester.snap = failed

	report := f.svc.Refresh(context.Background())
	if !report.Failed {
		t.Error("Refresh() report should be marked failed")
	}
	if got := len(f.svc.Learners("")); got != 2 {
		t.Errorf("Learners() = %d entries, want previous directory kept", got)
	}
}

func TestLearnersSearch(t *testing.T) {
	f := newPortalFixture(t)

	tests := []struct {
		query string
		want  int
	}{
		{query: "", want: 2},
		{query: "ana", want: 1}, // name "Ana Pérez" and role "Analista" are the same learner
		{query: "GÓMEZ", want: 1},
		{query: "estudiante", want: 1},
		{query: "zzz", want: 0},
	}
	for _, tt := range tests {
		if got := len(f.svc.Learners(tt.query)); got != tt.want {
			t.Errorf("Learners(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
