package session

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
	"github.com/Eoha39/clicker-webapp/internal/game"
	"github.com/Eoha39/clicker-webapp/internal/save"
	"github.com/Eoha39/clicker-webapp/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	*save.MemoryStore
	mu      sync.Mutex
	loadErr error
	saveErr error
	saves   int
}

func (f *failingStore) Load(ctx context.Context, id string) ([]byte, bool, error) {
	f.mu.Lock()
	err := f.loadErr
	f.mu.Unlock()
	if err != nil {
		return nil, false, err
	}
	return f.MemoryStore.Load(ctx, id)
}

func (f *failingStore) Save(ctx context.Context, id string, blob []byte) error {
	f.mu.Lock()
	f.saves++
	err := f.saveErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.Save(ctx, id, blob)
}

type harness struct {
	mgr   *Manager
	clock *FakeClock
	store *failingStore
	tel   *telemetry.MemoryRepository
	logs  *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock: NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		store: &failingStore{MemoryStore: save.NewMemoryStore()},
		tel:   telemetry.NewMemoryRepository(0),
		logs:  &bytes.Buffer{},
	}
	h.mgr = NewManager(Options{
		Store:     h.store,
		Telemetry: h.tel,
		Logger:    log.New(h.logs, "", 0),
		Clock:     h.clock,
	})
	return h
}

func (h *harness) session(t *testing.T, id string) *Session {
	t.Helper()
	s, err := h.mgr.Get(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (h *harness) events(t *testing.T, types ...telemetry.EventType) []telemetry.Event {
	t.Helper()
	ev, err := h.tel.GetEvents(time.Time{}, types)
	require.NoError(t, err)
	return ev
}

func (h *harness) stored(t *testing.T, id string) game.GameState {
	t.Helper()
	blob, found, err := h.store.MemoryStore.Load(context.Background(), id)
	require.NoError(t, err)
	require.True(t, found, "no save for %s", id)
	e := game.NewEngine(catalog.Default())
	require.NoError(t, e.Initialize(blob))
	return e.State()
}

func TestManager_GetLoadsSavedGame(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.MemoryStore.Save(context.Background(), "p1", []byte(`{"version":1,"currency":50}`)))

	s := h.session(t, "p1")
	assert.Equal(t, 50.0, s.State().Currency)

	again := h.session(t, "p1")
	assert.Same(t, s, again)
	assert.Equal(t, []string{"p1"}, h.mgr.PlayerIDs())
}

func TestManager_GetRejectsBlankID(t *testing.T) {
	h := newHarness(t)
	_, err := h.mgr.Get(context.Background(), "  ")
	assert.Error(t, err)
}

func TestManager_CorruptSaveStartsFresh(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.MemoryStore.Save(context.Background(), "p1", []byte(`{"currency":-1}`)))

	s := h.session(t, "p1")

	assert.Equal(t, 0.0, s.State().Currency)
	assert.Contains(t, h.logs.String(), "corrupt save")
	assert.Len(t, h.events(t, telemetry.EventSnapshotCorrupt), 1)
}

func TestManager_LoadErrorIsReturned(t *testing.T) {
	h := newHarness(t)
	h.store.loadErr = errors.New("disk on fire")

	_, err := h.mgr.Get(context.Background(), "p1")

	require.Error(t, err)
	_, live := h.mgr.Lookup("p1")
	assert.False(t, live)
}

func TestSession_ClickIsSavedByAutosave(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, "p1")

	res := s.Click()
	assert.Equal(t, 1.0, res.AmountGained)
	assert.True(t, s.Dirty())

	h.clock.Advance(500 * time.Millisecond)
	h.mgr.Step(context.Background())
	assert.True(t, s.Dirty())

	h.clock.Advance(500 * time.Millisecond)
	h.mgr.Step(context.Background())
	assert.False(t, s.Dirty())
	assert.Equal(t, uint64(1), h.stored(t, "p1").Stats.TotalClicks)

	assert.Len(t, h.events(t, telemetry.EventClick), 1)
	assert.Len(t, h.events(t, telemetry.EventAchievementUnlocked), 1)
}

func TestSession_BuySavesImmediately(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, "p1")
	require.NoError(t, s.Import(context.Background(), []byte(`{"version":1,"currency":100}`)))

	res := s.Buy(context.Background(), catalog.AutoClicker)

	require.True(t, res.OK())
	assert.False(t, s.Dirty())
	st := h.stored(t, "p1")
	assert.Equal(t, 90.0, st.Currency)
	assert.Equal(t, 1, st.Upgrades[catalog.AutoClicker].Level)
	assert.Len(t, h.events(t, telemetry.EventUpgradePurchased), 1)
}

func TestSession_RejectedPurchaseIsRecorded(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, "p1")

	res := s.Buy(context.Background(), catalog.PetaClicker)
	assert.Equal(t, game.PurchaseInsufficientFunds, res.Outcome)

	res = s.Buy(context.Background(), "bogus")
	assert.Equal(t, game.PurchaseUnknownUpgrade, res.Outcome)

	assert.Len(t, h.events(t, telemetry.EventPurchaseRejected), 2)
	assert.False(t, s.Dirty())
}

func TestSession_SaveFailureDoesNotStopPlay(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, "p1")
	require.NoError(t, s.Import(context.Background(), []byte(`{"version":1,"currency":100}`)))
	h.store.saveErr = errors.New("read-only filesystem")

	res := s.Buy(context.Background(), catalog.AutoClicker)

	require.True(t, res.OK())
	assert.Equal(t, 90.0, s.State().Currency)
	assert.True(t, s.Dirty())
	assert.Contains(t, h.logs.String(), "save failed")
	assert.Len(t, h.events(t, telemetry.EventSaveFailed), 1)

	s.Click()
	assert.Equal(t, 91.0, s.State().Currency)

	h.store.saveErr = nil
	require.NoError(t, h.mgr.Flush(context.Background()))
	assert.False(t, s.Dirty())
	assert.Equal(t, 91.0, h.stored(t, "p1").Currency)
}

func TestSession_SaveSkipsWhenClean(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, "p1")

	require.NoError(t, s.Save(context.Background()))
	assert.Zero(t, h.store.saves)

	s.Click()
	require.NoError(t, s.Save(context.Background()))
	require.NoError(t, s.Save(context.Background()))
	assert.Equal(t, 1, h.store.saves)
}

func TestManager_StepCreditsElapsedTime(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, "p1")
	require.NoError(t, s.Import(context.Background(), []byte(`{"version":1,"upgrades":{"autoClicker":{"level":10}}}`)))

	for i := 0; i < 5; i++ {
		h.clock.Advance(100 * time.Millisecond)
		h.mgr.Step(context.Background())
	}

	assert.InDelta(t, 0.5, s.State().Currency, 1e-9)
}

func TestManager_EvictsIdleSessions(t *testing.T) {
	h := newHarness(t)
	idle := h.session(t, "p1")
	idle.Click()
	h.session(t, "p2")

	h.clock.Advance(9 * time.Minute)
	h.mgr.Step(context.Background())
	assert.Equal(t, []string{"p1", "p2"}, h.mgr.PlayerIDs())

	h.session(t, "p2")
	h.clock.Advance(2 * time.Minute)
	h.mgr.Step(context.Background())

	assert.Equal(t, []string{"p2"}, h.mgr.PlayerIDs())
	_, ok := h.mgr.Lookup("p1")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), h.stored(t, "p1").Stats.TotalClicks)
	assert.Contains(t, h.logs.String(), "evicted 1 idle sessions")

	back := h.session(t, "p1")
	assert.NotSame(t, idle, back)
	assert.Equal(t, uint64(1), back.State().Stats.TotalClicks)
}

func TestManager_KeepsStreamedAndUnsavedSessions(t *testing.T) {
	h := newHarness(t)
	streamed := h.session(t, "p1")
	_, cancel := streamed.Subscribe()
	h.session(t, "p2").Click()
	h.store.saveErr = errors.New("disk full")

	h.clock.Advance(11 * time.Minute)
	h.mgr.Step(context.Background())
	assert.Equal(t, []string{"p1", "p2"}, h.mgr.PlayerIDs())

	cancel()
	h.store.saveErr = nil
	h.clock.Advance(time.Second)
	h.mgr.Step(context.Background())

	assert.Empty(t, h.mgr.PlayerIDs())
	assert.Equal(t, uint64(1), h.stored(t, "p2").Stats.TotalClicks)
}

func TestManager_RunTicksUntilCanceled(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, "p1")
	require.NoError(t, s.Import(context.Background(), []byte(`{"version":1,"upgrades":{"megaClicker":{"level":2}}}`)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.mgr.Run(ctx) }()

	assert.Eventually(t, func() bool {
		h.clock.Advance(100 * time.Millisecond)
		return s.State().Currency > 0
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	assert.False(t, s.Dirty())
	assert.Greater(t, h.stored(t, "p1").Currency, 0.0)
}

func TestSession_ImportRejectsCorruptSnapshot(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, "p1")
	s.Click()
	s.Click()

	err := s.Import(context.Background(), []byte(`{"version":7}`))

	require.Error(t, err)
	assert.ErrorIs(t, err, game.ErrCorruptSnapshot)
	assert.Equal(t, 2.0, s.State().Currency)
	assert.Len(t, h.events(t, telemetry.EventSnapshotCorrupt), 1)
}

func TestSession_ResetDeletesSave(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, "p1")
	require.NoError(t, s.Import(context.Background(), []byte(`{"version":1,"currency":500}`)))

	require.NoError(t, s.Reset(context.Background()))

	assert.Equal(t, 0.0, s.State().Currency)
	assert.False(t, s.Dirty())
	_, found, err := h.store.MemoryStore.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Len(t, h.events(t, telemetry.EventGameReset), 1)
}

func TestSession_SubscribersAreNotified(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, "p1")

	ch, cancel := s.Subscribe()
	s.Click()
	s.Click()

	select {
	case <-ch:
	default:
		t.Fatal("expected a change signal")
	}
	select {
	case <-ch:
		t.Fatal("signals should coalesce")
	default:
	}

	cancel()
	cancel()
	s.Click()
	select {
	case <-ch:
		t.Fatal("canceled subscriber was notified")
	default:
	}
}

func TestSession_ConcurrentClicks(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, "p1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				s.Click()
				_ = s.View()
			}
		}()
	}
	wg.Wait()

	st := s.State()
	assert.Equal(t, uint64(1000), st.Stats.TotalClicks)
	assert.Equal(t, 1000.0, st.Currency)
}

func TestFakeClock_TickerFiresOnAdvance(t *testing.T) {
	c := NewFakeClock(time.Unix(0, 0))
	tk := c.NewTicker(time.Second)

	c.Advance(500 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("ticker fired early")
	default:
	}

	c.Advance(3 * time.Second)
	select {
	case at := <-tk.C():
		assert.Equal(t, time.Unix(3, 500_000_000), at)
	default:
		t.Fatal("ticker did not fire")
	}

	tk.Stop()
	c.Advance(time.Hour)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}
