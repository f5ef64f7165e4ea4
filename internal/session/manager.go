// Package session drives one progression engine per player: it
// serializes engine calls, runs the tick loop, and persists snapshots.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
	"github.com/Eoha39/clicker-webapp/internal/game"
	"github.com/Eoha39/clicker-webapp/internal/save"
	"github.com/Eoha39/clicker-webapp/internal/telemetry"
)

const (
	DefaultTickInterval     = 100 * time.Millisecond
	DefaultAutosaveInterval = time.Second
	DefaultIdleTTL          = 10 * time.Minute
)

type Options struct {
	Catalog          *catalog.Catalog
	Store            save.Store
	Telemetry        telemetry.Repository
	Logger           *log.Logger
	Clock            Clock
	TickInterval     time.Duration
	AutosaveInterval time.Duration
	// IdleTTL is how long a session may go without a Get before it is
	// saved and dropped from memory.
	IdleTTL time.Duration
}

// Manager owns every live Session.
type Manager struct {
	opts Options

	mu           sync.Mutex
	sessions     map[string]*Session
	lastAutosave time.Time
}

func NewManager(opts Options) *Manager {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Store == nil {
		opts.Store = save.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = DefaultAutosaveInterval
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	return &Manager{
		opts:         opts,
		sessions:     map[string]*Session{},
		lastAutosave: opts.Clock.Now(),
	}
}

func (m *Manager) Catalog() *catalog.Catalog { return m.opts.Catalog }

// Get returns the player's session, loading it from the store on first
// use. A corrupt save is logged and replaced by a fresh game; a store
// read error is returned so the save is not overwritten.
func (m *Manager) Get(ctx context.Context, playerID string) (*Session, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, errors.New("player id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.Clock.Now()
	if s, ok := m.sessions[playerID]; ok {
		s.lastSeen = now
		return s, nil
	}

	blob, found, err := m.opts.Store.Load(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", playerID, err)
	}

	eng := game.NewEngine(m.opts.Catalog)
	if found {
		if err := eng.Initialize(blob); err != nil {
			m.logf("player=%s corrupt save, starting fresh: %v", playerID, err)
			m.record(playerID, telemetry.EventSnapshotCorrupt, telemetry.EventMetadata{
				"source": "store",
				"error":  err.Error(),
			})
		}
	}

	s := &Session{
		mgr:      m,
		id:       playerID,
		eng:      eng,
		lastTick: now,
		lastSeen: now,
		subs:     map[int]chan struct{}{},
	}
	m.sessions[playerID] = s
	return s, nil
}

// Lookup returns a session only if it is already live.
func (m *Manager) Lookup(playerID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[strings.TrimSpace(playerID)]
	return s, ok
}

// PlayerIDs lists live sessions in sorted order.
func (m *Manager) PlayerIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) snapshotSessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Step advances every session to the clock's current time. When the
// autosave interval has passed it saves changed sessions and evicts idle
// ones.
func (m *Manager) Step(ctx context.Context) {
	now := m.opts.Clock.Now()
	for _, s := range m.snapshotSessions() {
		s.advance(now)
	}

	m.mu.Lock()
	due := now.Sub(m.lastAutosave) >= m.opts.AutosaveInterval
	if due {
		m.lastAutosave = now
	}
	m.mu.Unlock()

	if due {
		_ = m.Flush(ctx)
		if n := m.evictIdle(ctx, now); n > 0 {
			m.logf("evicted %d idle sessions", n)
		}
	}
}

// evictIdle drops sessions nobody has asked for within IdleTTL. A session
// is only dropped once its latest state is saved and no live stream is
// subscribed to it.
func (m *Manager) evictIdle(ctx context.Context, now time.Time) int {
	var idle []*Session
	m.mu.Lock()
	for _, s := range m.sessions {
		if now.Sub(s.lastSeen) >= m.opts.IdleTTL {
			idle = append(idle, s)
		}
	}
	m.mu.Unlock()

	evicted := 0
	for _, s := range idle {
		if s.subscribed() {
			continue
		}
		if err := s.Save(ctx); err != nil {
			continue
		}
		m.mu.Lock()
		if m.sessions[s.id] == s && now.Sub(s.lastSeen) >= m.opts.IdleTTL && !s.Dirty() && !s.subscribed() {
			delete(m.sessions, s.id)
			evicted++
		}
		m.mu.Unlock()
	}
	return evicted
}

// Run ticks all sessions until ctx is canceled, then flushes unsaved
// progress.
func (m *Manager) Run(ctx context.Context) error {
	ticker := m.opts.Clock.NewTicker(m.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return m.Flush(context.WithoutCancel(ctx))
		case <-ticker.C():
			m.Step(ctx)
		}
	}
}

// Flush saves every session with unsaved changes.
func (m *Manager) Flush(ctx context.Context) error {
	var errs []error
	for _, s := range m.snapshotSessions() {
		if err := s.Save(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) logf(format string, args ...any) {
	m.opts.Logger.Printf("[session] "+format, args...)
}

func (m *Manager) record(playerID string, t telemetry.EventType, meta telemetry.EventMetadata) {
	if m.opts.Telemetry == nil {
		return
	}
	if err := m.opts.Telemetry.RecordEvent(playerID, t, meta); err != nil {
		m.logf("player=%s telemetry %s dropped: %v", playerID, t, err)
	}
}

func (m *Manager) recordUnlocks(playerID string, ids []catalog.AchievementID) {
	for _, id := range ids {
		m.record(playerID, telemetry.EventAchievementUnlocked, telemetry.EventMetadata{
			"achievement": string(id),
		})
	}
}
