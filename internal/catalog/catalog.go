package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type UpgradeID string

type AchievementID string

// EffectKind tags what an upgrade level contributes to.
type EffectKind string

const (
	PerSecondRate EffectKind = "per_second"
	PerClickBonus EffectKind = "per_click"
)

// Effect is the per-level contribution of an upgrade.
type Effect struct {
	Kind  EffectKind `yaml:"kind" json:"kind"`
	Value float64    `yaml:"value" json:"value"`
}

// MetricKind names the cumulative metric an achievement tracks.
type MetricKind string

const (
	MetricClicks            MetricKind = "clicks"
	MetricUpgradesPurchased MetricKind = "upgradesPurchased"
	MetricAutoClickerLevels MetricKind = "autoClickerLevels"
	MetricCurrency          MetricKind = "currency"
)

type UpgradeDefinition struct {
	ID          UpgradeID `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Icon        string    `yaml:"icon" json:"icon"`
	BaseCost    uint64    `yaml:"base_cost" json:"baseCost"`
	Multiplier  float64   `yaml:"multiplier" json:"multiplier"`
	Effect      Effect    `yaml:"effect" json:"effect"`
}

// CostAt returns floor(BaseCost * Multiplier^level), saturating at the
// largest uint64.
func (u UpgradeDefinition) CostAt(level int) uint64 {
	if level < 0 {
		level = 0
	}
	cost := math.Floor(float64(u.BaseCost) * math.Pow(u.Multiplier, float64(level)))
	if math.IsInf(cost, 0) || math.IsNaN(cost) || cost >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(cost)
}

type AchievementDefinition struct {
	ID          AchievementID `yaml:"id" json:"id"`
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description" json:"description"`
	Icon        string        `yaml:"icon" json:"icon"`
	Metric      MetricKind    `yaml:"metric" json:"metric"`
	Requirement float64       `yaml:"requirement" json:"requirement"`
}

// Catalog is the read-only table of upgrades and achievements. Order is
// the display order and the achievement evaluation order.
type Catalog struct {
	upgrades     []UpgradeDefinition
	achievements []AchievementDefinition

	upgradeIdx     map[UpgradeID]int
	achievementIdx map[AchievementID]int
}

// New builds a catalog and validates it.
func New(upgrades []UpgradeDefinition, achievements []AchievementDefinition) (*Catalog, error) {
	c := &Catalog{
		upgrades:       append([]UpgradeDefinition(nil), upgrades...),
		achievements:   append([]AchievementDefinition(nil), achievements...),
		upgradeIdx:     make(map[UpgradeID]int, len(upgrades)),
		achievementIdx: make(map[AchievementID]int, len(achievements)),
	}
	for i, u := range c.upgrades {
		c.upgradeIdx[u.ID] = i
	}
	for i, a := range c.achievements {
		c.achievementIdx[a.ID] = i
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) Upgrades() []UpgradeDefinition {
	return append([]UpgradeDefinition(nil), c.upgrades...)
}

func (c *Catalog) Achievements() []AchievementDefinition {
	return append([]AchievementDefinition(nil), c.achievements...)
}

func (c *Catalog) Upgrade(id UpgradeID) (UpgradeDefinition, bool) {
	i, ok := c.upgradeIdx[id]
	if !ok {
		return UpgradeDefinition{}, false
	}
	return c.upgrades[i], true
}

func (c *Catalog) Achievement(id AchievementID) (AchievementDefinition, bool) {
	i, ok := c.achievementIdx[id]
	if !ok {
		return AchievementDefinition{}, false
	}
	return c.achievements[i], true
}

// Validate checks the economic parameters. baseCost*(multiplier-1) >= 1
// keeps integer costs strictly increasing from one level to the next.
func (c *Catalog) Validate() error {
	var errs []error

	seenU := map[UpgradeID]bool{}
	for _, u := range c.upgrades {
		if strings.TrimSpace(string(u.ID)) == "" {
			errs = append(errs, errors.New("upgrade with empty id"))
			continue
		}
		if seenU[u.ID] {
			errs = append(errs, fmt.Errorf("upgrade %q: duplicate id", u.ID))
		}
		seenU[u.ID] = true
		if u.BaseCost < 1 {
			errs = append(errs, fmt.Errorf("upgrade %q: base_cost must be >= 1", u.ID))
		}
		if !(u.Multiplier > 1) {
			errs = append(errs, fmt.Errorf("upgrade %q: multiplier must be > 1", u.ID))
		} else if float64(u.BaseCost)*(u.Multiplier-1) < 1 {
			errs = append(errs, fmt.Errorf("upgrade %q: base_cost*(multiplier-1) must be >= 1", u.ID))
		}
		switch u.Effect.Kind {
		case PerSecondRate, PerClickBonus:
		default:
			errs = append(errs, fmt.Errorf("upgrade %q: unknown effect kind %q", u.ID, u.Effect.Kind))
		}
		if !(u.Effect.Value > 0) || math.IsInf(u.Effect.Value, 0) {
			errs = append(errs, fmt.Errorf("upgrade %q: effect value must be positive", u.ID))
		}
	}

	seenA := map[AchievementID]bool{}
	for _, a := range c.achievements {
		if strings.TrimSpace(string(a.ID)) == "" {
			errs = append(errs, errors.New("achievement with empty id"))
			continue
		}
		if seenA[a.ID] {
			errs = append(errs, fmt.Errorf("achievement %q: duplicate id", a.ID))
		}
		seenA[a.ID] = true
		switch a.Metric {
		case MetricClicks, MetricUpgradesPurchased, MetricAutoClickerLevels, MetricCurrency:
		default:
			errs = append(errs, fmt.Errorf("achievement %q: unknown metric %q", a.ID, a.Metric))
		}
		if !(a.Requirement > 0) || math.IsInf(a.Requirement, 0) {
			errs = append(errs, fmt.Errorf("achievement %q: requirement must be positive", a.ID))
		}
	}

	return errors.Join(errs...)
}
