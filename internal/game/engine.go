package game

import (
	"math"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
)

// Engine owns one player's GameState and applies every change to it.
// It is not safe for concurrent use; callers serialize access.
type Engine struct {
	cat          *catalog.Catalog
	upgrades     []catalog.UpgradeDefinition
	achievements []catalog.AchievementDefinition
	st           GameState
}

// NewEngine returns an engine holding default state for cat.
func NewEngine(cat *catalog.Catalog) *Engine {
	e := &Engine{
		cat:          cat,
		upgrades:     cat.Upgrades(),
		achievements: cat.Achievements(),
	}
	e.st = defaultState(cat)
	e.recomputeRates()
	return e
}

func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// State returns a deep copy of the current state.
func (e *Engine) State() GameState { return cloneState(e.st) }

// Reset discards all progress.
func (e *Engine) Reset() {
	e.st = defaultState(e.cat)
	e.recomputeRates()
}

func (e *Engine) RegisterClick() ClickResult {
	gained := e.st.CurrencyPerClick
	e.st.Currency += gained
	e.st.Stats.TotalClicks++
	return ClickResult{
		AmountGained:  gained,
		NewlyUnlocked: e.evaluateAchievements(),
	}
}

// PurchaseUpgrade buys one level of id. Nothing changes unless the
// outcome is PurchaseSucceeded.
func (e *Engine) PurchaseUpgrade(id catalog.UpgradeID) PurchaseResult {
	def, ok := e.cat.Upgrade(id)
	if !ok {
		return PurchaseResult{Outcome: PurchaseUnknownUpgrade, UpgradeID: id}
	}

	us := e.st.Upgrades[id]
	cost := def.CostAt(us.Level)
	if e.st.Currency < float64(cost) {
		return PurchaseResult{
			Outcome:   PurchaseInsufficientFunds,
			UpgradeID: id,
			Required:  cost,
			Available: e.st.Currency,
		}
	}

	before := e.rate(def.Effect.Kind)

	e.st.Currency = math.Max(0, e.st.Currency-float64(cost))
	us.Level++
	e.st.Upgrades[id] = us
	e.st.Stats.TotalUpgradesPurchased++
	if def.Effect.Kind == catalog.PerSecondRate {
		e.st.Stats.TotalAutoClickerLevels++
	}
	e.recomputeRates()

	return PurchaseResult{
		Outcome:       PurchaseSucceeded,
		UpgradeID:     id,
		NewLevel:      us.Level,
		NewCost:       def.CostAt(us.Level),
		EffectDelta:   e.rate(def.Effect.Kind) - before,
		NewlyUnlocked: e.evaluateAchievements(),
	}
}

// Tick credits passive income for elapsed seconds. Non-positive or
// non-finite elapsed values are ignored.
func (e *Engine) Tick(elapsed float64) TickResult {
	if !(elapsed > 0) || math.IsInf(elapsed, 1) {
		return TickResult{}
	}
	gained := e.st.CurrencyPerSecond * elapsed
	e.st.Currency += gained
	return TickResult{
		CurrencyGained: gained,
		NewlyUnlocked:  e.evaluateAchievements(),
	}
}

// CurrentCost is the price of the next level of id.
func (e *Engine) CurrentCost(id catalog.UpgradeID) (uint64, bool) {
	def, ok := e.cat.Upgrade(id)
	if !ok {
		return 0, false
	}
	return def.CostAt(e.st.Upgrades[id].Level), true
}

func (e *Engine) rate(kind catalog.EffectKind) float64 {
	if kind == catalog.PerClickBonus {
		return e.st.CurrencyPerClick
	}
	return e.st.CurrencyPerSecond
}

// recomputeRates derives both rates from scratch over all upgrades.
func (e *Engine) recomputeRates() {
	perClick, perSecond := 1.0, 0.0
	for _, u := range e.upgrades {
		contrib := float64(e.st.Upgrades[u.ID].Level) * u.Effect.Value
		switch u.Effect.Kind {
		case catalog.PerClickBonus:
			perClick += contrib
		case catalog.PerSecondRate:
			perSecond += contrib
		}
	}
	e.st.CurrencyPerClick = perClick
	e.st.CurrencyPerSecond = perSecond
}

func (e *Engine) metric(kind catalog.MetricKind) float64 {
	switch kind {
	case catalog.MetricClicks:
		return float64(e.st.Stats.TotalClicks)
	case catalog.MetricUpgradesPurchased:
		return float64(e.st.Stats.TotalUpgradesPurchased)
	case catalog.MetricAutoClickerLevels:
		return float64(e.st.Stats.TotalAutoClickerLevels)
	case catalog.MetricCurrency:
		return e.st.Currency
	default:
		return 0
	}
}

// evaluateAchievements unlocks every locked achievement whose metric has
// reached its requirement, in catalog order, and returns the ids unlocked
// by this call.
func (e *Engine) evaluateAchievements() []catalog.AchievementID {
	var unlocked []catalog.AchievementID
	for _, a := range e.achievements {
		if e.st.Achievements[a.ID].Unlocked {
			continue
		}
		if e.metric(a.Metric) >= a.Requirement {
			e.st.Achievements[a.ID] = AchievementState{Unlocked: true}
			unlocked = append(unlocked, a.ID)
		}
	}
	return unlocked
}
