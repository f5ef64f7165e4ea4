package game

import (
	"encoding/json"
	"fmt"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
)

// SnapshotVersion is written into every exported snapshot. Documents
// without a version are treated as saves from the browser client.
const SnapshotVersion = 1

type snapshotDoc struct {
	Version           int                                           `json:"version,omitempty"`
	Currency          *float64                                      `json:"currency,omitempty"`
	Coins             *float64                                      `json:"coins,omitempty"`
	CurrencyPerClick  float64                                       `json:"currencyPerClick"`
	CurrencyPerSecond float64                                       `json:"currencyPerSecond"`
	Upgrades          map[catalog.UpgradeID]snapshotUpgrade         `json:"upgrades"`
	Achievements      map[catalog.AchievementID]snapshotAchievement `json:"achievements"`
	Stats             snapshotStats                                 `json:"stats"`
}

// Cost is exported for read-only consumers and ignored on load.
type snapshotUpgrade struct {
	Level int    `json:"level"`
	Cost  uint64 `json:"cost"`
}

type snapshotAchievement struct {
	Unlocked bool `json:"unlocked"`
}

type snapshotStats struct {
	TotalClicks            uint64  `json:"totalClicks"`
	TotalUpgradesPurchased *uint64 `json:"totalUpgradesPurchased,omitempty"`
	TotalAutoClickerLevels *uint64 `json:"totalAutoClickerLevels,omitempty"`

	// browser client field names
	TotalUpgrades     *uint64 `json:"totalUpgrades,omitempty"`
	TotalAutoClickers *uint64 `json:"totalAutoClickers,omitempty"`
}

// Initialize replaces the engine state with snapshot merged onto the
// defaults. An empty snapshot yields defaults. A snapshot that cannot be
// used also yields defaults, and the returned error wraps
// ErrCorruptSnapshot; the engine stays usable either way. Achievements the
// loaded state already meets are unlocked before Initialize returns.
func (e *Engine) Initialize(snapshot []byte) error {
	e.Reset()
	if len(snapshot) == 0 {
		return nil
	}

	var doc snapshotDoc
	if err := json.Unmarshal(snapshot, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	st, err := e.merge(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	e.st = st
	e.recomputeRates()
	e.evaluateAchievements()
	return nil
}

func (e *Engine) merge(doc snapshotDoc) (GameState, error) {
	if doc.Version > SnapshotVersion {
		return GameState{}, fmt.Errorf("unsupported version %d", doc.Version)
	}

	out := defaultState(e.cat)

	switch {
	case doc.Currency != nil:
		out.Currency = *doc.Currency
	case doc.Coins != nil:
		out.Currency = *doc.Coins
	}
	if out.Currency < 0 {
		return GameState{}, fmt.Errorf("negative currency %v", out.Currency)
	}

	for id, u := range doc.Upgrades {
		if _, ok := out.Upgrades[id]; !ok {
			continue
		}
		if u.Level < 0 {
			return GameState{}, fmt.Errorf("upgrade %q: negative level %d", id, u.Level)
		}
		out.Upgrades[id] = UpgradeState{Level: u.Level}
	}
	for id, a := range doc.Achievements {
		if _, ok := out.Achievements[id]; !ok {
			continue
		}
		out.Achievements[id] = AchievementState{Unlocked: a.Unlocked}
	}

	out.Stats.TotalClicks = doc.Stats.TotalClicks
	out.Stats.TotalUpgradesPurchased = firstOf(doc.Stats.TotalUpgradesPurchased, doc.Stats.TotalUpgrades)
	out.Stats.TotalAutoClickerLevels = firstOf(doc.Stats.TotalAutoClickerLevels, doc.Stats.TotalAutoClickers)
	return out, nil
}

func firstOf(vals ...*uint64) uint64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

// ExportSnapshot serializes the full state, derived rates and current
// costs included.
func (e *Engine) ExportSnapshot() ([]byte, error) {
	currency := e.st.Currency
	stats := e.st.Stats
	doc := snapshotDoc{
		Version:           SnapshotVersion,
		Currency:          &currency,
		CurrencyPerClick:  e.st.CurrencyPerClick,
		CurrencyPerSecond: e.st.CurrencyPerSecond,
		Upgrades:          make(map[catalog.UpgradeID]snapshotUpgrade, len(e.st.Upgrades)),
		Achievements:      make(map[catalog.AchievementID]snapshotAchievement, len(e.st.Achievements)),
		Stats: snapshotStats{
			TotalClicks:            stats.TotalClicks,
			TotalUpgradesPurchased: &stats.TotalUpgradesPurchased,
			TotalAutoClickerLevels: &stats.TotalAutoClickerLevels,
		},
	}
	for _, u := range e.upgrades {
		level := e.st.Upgrades[u.ID].Level
		doc.Upgrades[u.ID] = snapshotUpgrade{Level: level, Cost: u.CostAt(level)}
	}
	for _, a := range e.achievements {
		doc.Achievements[a.ID] = snapshotAchievement{Unlocked: e.st.Achievements[a.ID].Unlocked}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("export snapshot: %w", err)
	}
	return b, nil
}

// SnapshotDocument returns an empty value with the snapshot's JSON layout,
// for schema generation.
func SnapshotDocument() any { return new(snapshotDoc) }
