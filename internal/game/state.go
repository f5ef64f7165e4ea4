package game

import "github.com/Eoha39/clicker-webapp/internal/catalog"

// GameState is the full progression state of one player. CurrencyPerClick
// and CurrencyPerSecond are derived from upgrade levels and are only ever
// written by the engine's recompute step.
type GameState struct {
	Currency          float64                                    `json:"currency"`
	CurrencyPerClick  float64                                    `json:"currencyPerClick"`
	CurrencyPerSecond float64                                    `json:"currencyPerSecond"`
	Upgrades          map[catalog.UpgradeID]UpgradeState         `json:"upgrades"`
	Achievements      map[catalog.AchievementID]AchievementState `json:"achievements"`
	Stats             Stats                                      `json:"stats"`
}

type UpgradeState struct {
	Level int `json:"level"`
}

type AchievementState struct {
	Unlocked bool `json:"unlocked"`
}

// Stats are lifetime counters; they never decrease.
type Stats struct {
	TotalClicks            uint64 `json:"totalClicks"`
	TotalUpgradesPurchased uint64 `json:"totalUpgradesPurchased"`
	TotalAutoClickerLevels uint64 `json:"totalAutoClickerLevels"`
}

func defaultState(cat *catalog.Catalog) GameState {
	st := GameState{
		CurrencyPerClick: 1,
		Upgrades:         map[catalog.UpgradeID]UpgradeState{},
		Achievements:     map[catalog.AchievementID]AchievementState{},
	}
	for _, u := range cat.Upgrades() {
		st.Upgrades[u.ID] = UpgradeState{}
	}
	for _, a := range cat.Achievements() {
		st.Achievements[a.ID] = AchievementState{}
	}
	return st
}

func cloneState(src GameState) GameState {
	out := src
	out.Upgrades = make(map[catalog.UpgradeID]UpgradeState, len(src.Upgrades))
	for k, v := range src.Upgrades {
		out.Upgrades[k] = v
	}
	out.Achievements = make(map[catalog.AchievementID]AchievementState, len(src.Achievements))
	for k, v := range src.Achievements {
		out.Achievements[k] = v
	}
	return out
}
