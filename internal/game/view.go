package game

import (
	"math"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
	"github.com/Eoha39/clicker-webapp/internal/format"
)

// View is what a presentation layer needs to draw the game.
type View struct {
	Currency          float64           `json:"currency"`
	CurrencyPerClick  float64           `json:"currencyPerClick"`
	CurrencyPerSecond float64           `json:"currencyPerSecond"`
	Text              ViewText          `json:"text"`
	Upgrades          []UpgradeView     `json:"upgrades"`
	Achievements      []AchievementView `json:"achievements"`
	Stats             Stats             `json:"stats"`
}

type ViewText struct {
	Currency      string `json:"currency"`
	CurrencyExact string `json:"currencyExact"`
	PerClick      string `json:"perClick"`
	PerSecond     string `json:"perSecond"`
}

type UpgradeView struct {
	ID            catalog.UpgradeID  `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	Icon          string             `json:"icon"`
	EffectKind    catalog.EffectKind `json:"effectKind"`
	EffectValue   float64            `json:"effectValue"`
	Level         int                `json:"level"`
	Cost          uint64             `json:"cost"`
	CostText      string             `json:"costText"`
	CurrentEffect float64            `json:"currentEffect"`
	Affordable    bool               `json:"affordable"`
}

type AchievementView struct {
	ID          catalog.AchievementID `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Icon        string                `json:"icon"`
	Metric      catalog.MetricKind    `json:"metric"`
	Requirement float64               `json:"requirement"`
	Unlocked    bool                  `json:"unlocked"`
	Progress    float64               `json:"progress"`
}

// View builds the presentation read model in catalog order.
func (e *Engine) View() View {
	v := View{
		Currency:          e.st.Currency,
		CurrencyPerClick:  e.st.CurrencyPerClick,
		CurrencyPerSecond: e.st.CurrencyPerSecond,
		Text: ViewText{
			Currency:      format.Number(e.st.Currency),
			CurrencyExact: format.Exact(e.st.Currency),
			PerClick:      format.Number(e.st.CurrencyPerClick),
			PerSecond:     format.Number(e.st.CurrencyPerSecond),
		},
		Upgrades:     make([]UpgradeView, 0, len(e.upgrades)),
		Achievements: make([]AchievementView, 0, len(e.achievements)),
		Stats:        e.st.Stats,
	}

	for _, u := range e.upgrades {
		level := e.st.Upgrades[u.ID].Level
		cost := u.CostAt(level)
		v.Upgrades = append(v.Upgrades, UpgradeView{
			ID:            u.ID,
			Name:          u.Name,
			Description:   u.Description,
			Icon:          u.Icon,
			EffectKind:    u.Effect.Kind,
			EffectValue:   u.Effect.Value,
			Level:         level,
			Cost:          cost,
			CostText:      format.Number(float64(cost)),
			CurrentEffect: float64(level) * u.Effect.Value,
			Affordable:    e.st.Currency >= float64(cost),
		})
	}

	for _, a := range e.achievements {
		v.Achievements = append(v.Achievements, AchievementView{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Icon:        a.Icon,
			Metric:      a.Metric,
			Requirement: a.Requirement,
			Unlocked:    e.st.Achievements[a.ID].Unlocked,
			Progress:    math.Min(e.metric(a.Metric)/a.Requirement, 1),
		})
	}
	return v
}
