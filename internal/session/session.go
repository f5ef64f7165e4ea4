package session

import (
	"context"
	"sync"
	"time"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
	"github.com/Eoha39/clicker-webapp/internal/game"
	"github.com/Eoha39/clicker-webapp/internal/telemetry"
)

// Session is one player's engine. Every engine call goes through mu.
type Session struct {
	mgr *Manager
	id  string

	mu       sync.Mutex
	eng      *game.Engine
	lastTick time.Time
	version  uint64
	saved    uint64

	// lastSeen is guarded by mgr.mu.
	lastSeen time.Time

	// saveMu keeps store writes in version order.
	saveMu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

func (s *Session) ID() string { return s.id }

func (s *Session) View() game.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.View()
}

func (s *Session) State() game.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.State()
}

// Dirty reports whether the session has changes not yet saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version != s.saved
}

// Click registers one click. It is saved by the next autosave.
func (s *Session) Click() game.ClickResult {
	s.mu.Lock()
	res := s.eng.RegisterClick()
	s.version++
	s.mu.Unlock()

	s.mgr.record(s.id, telemetry.EventClick, telemetry.EventMetadata{"gained": res.AmountGained})
	s.mgr.recordUnlocks(s.id, res.NewlyUnlocked)
	s.notify()
	return res
}

// Buy purchases one level of id and saves on success. A failed save is
// logged and does not undo the purchase.
func (s *Session) Buy(ctx context.Context, id catalog.UpgradeID) game.PurchaseResult {
	s.mu.Lock()
	res := s.eng.PurchaseUpgrade(id)
	if res.OK() {
		s.version++
	}
	s.mu.Unlock()

	if !res.OK() {
		s.mgr.record(s.id, telemetry.EventPurchaseRejected, telemetry.EventMetadata{
			"upgrade": string(id),
			"reason":  string(res.Outcome),
		})
		return res
	}

	s.mgr.record(s.id, telemetry.EventUpgradePurchased, telemetry.EventMetadata{
		"upgrade": string(id),
		"level":   res.NewLevel,
	})
	s.mgr.recordUnlocks(s.id, res.NewlyUnlocked)
	_ = s.Save(ctx)
	s.notify()
	return res
}

// Reset discards all progress and removes the stored save.
func (s *Session) Reset(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	s.eng.Reset()
	s.version++
	v := s.version
	s.mu.Unlock()

	s.mgr.record(s.id, telemetry.EventGameReset, telemetry.EventMetadata{})
	defer s.notify()

	if err := s.mgr.opts.Store.Delete(ctx, s.id); err != nil {
		s.mgr.logf("player=%s delete save failed: %v", s.id, err)
		s.mgr.record(s.id, telemetry.EventSaveFailed, telemetry.EventMetadata{"op": "delete", "error": err.Error()})
		return err
	}

	s.mu.Lock()
	if v > s.saved {
		s.saved = v
	}
	s.mu.Unlock()
	return nil
}

// Import replaces the game with snapshot. A corrupt snapshot is rejected
// and the current game is kept.
func (s *Session) Import(ctx context.Context, snapshot []byte) error {
	next := game.NewEngine(s.mgr.opts.Catalog)
	if err := next.Initialize(snapshot); err != nil {
		s.mgr.record(s.id, telemetry.EventSnapshotCorrupt, telemetry.EventMetadata{
			"source": "import",
			"error":  err.Error(),
		})
		return err
	}

	s.mu.Lock()
	s.eng = next
	s.version++
	s.mu.Unlock()

	s.mgr.record(s.id, telemetry.EventSnapshotImported, telemetry.EventMetadata{"bytes": len(snapshot)})
	_ = s.Save(ctx)
	s.notify()
	return nil
}

func (s *Session) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.ExportSnapshot()
}

// Save writes the current snapshot if anything changed since the last
// successful save. Failures are logged and recorded; the in-memory game
// stays authoritative.
func (s *Session) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.version == s.saved {
		s.mu.Unlock()
		return nil
	}
	v := s.version
	blob, err := s.eng.ExportSnapshot()
	s.mu.Unlock()

	if err == nil {
		err = s.mgr.opts.Store.Save(ctx, s.id, blob)
	}
	if err != nil {
		s.mgr.logf("player=%s save failed: %v", s.id, err)
		s.mgr.record(s.id, telemetry.EventSaveFailed, telemetry.EventMetadata{"op": "save", "error": err.Error()})
		return err
	}

	s.mu.Lock()
	if v > s.saved {
		s.saved = v
	}
	s.mu.Unlock()
	return nil
}

// Subscribe returns a channel that receives a signal after each change.
// Signals coalesce; readers should re-read View.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Session) subscribed() bool {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs) > 0
}

func (s *Session) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Session) advance(now time.Time) {
	s.mu.Lock()
	elapsed := now.Sub(s.lastTick).Seconds()
	if elapsed <= 0 {
		s.mu.Unlock()
		return
	}
	s.lastTick = now
	res := s.eng.Tick(elapsed)
	changed := res.CurrencyGained > 0 || len(res.NewlyUnlocked) > 0
	if changed {
		s.version++
	}
	s.mu.Unlock()

	s.mgr.recordUnlocks(s.id, res.NewlyUnlocked)
	if changed {
		s.notify()
	}
}
