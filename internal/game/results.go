package game

import (
	"errors"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownUpgrade    = errors.New("unknown upgrade")
	ErrCorruptSnapshot   = errors.New("corrupt snapshot")
)

type ClickResult struct {
	AmountGained  float64                 `json:"amountGained"`
	NewlyUnlocked []catalog.AchievementID `json:"newlyUnlocked,omitempty"`
}

type TickResult struct {
	CurrencyGained float64                 `json:"currencyGained"`
	NewlyUnlocked  []catalog.AchievementID `json:"newlyUnlocked,omitempty"`
}

type PurchaseOutcome string

const (
	PurchaseSucceeded         PurchaseOutcome = "success"
	PurchaseInsufficientFunds PurchaseOutcome = "insufficient_funds"
	PurchaseUnknownUpgrade    PurchaseOutcome = "unknown_upgrade"
)

// PurchaseResult is a tagged result. Which fields are meaningful depends
// on Outcome:
//
//	success            NewLevel, NewCost, EffectDelta, NewlyUnlocked
//	insufficient_funds Required, Available
//	unknown_upgrade    none
type PurchaseResult struct {
	Outcome   PurchaseOutcome   `json:"outcome"`
	UpgradeID catalog.UpgradeID `json:"upgradeId"`

	NewLevel      int                     `json:"newLevel,omitempty"`
	NewCost       uint64                  `json:"newCost,omitempty"`
	EffectDelta   float64                 `json:"effectDelta,omitempty"`
	NewlyUnlocked []catalog.AchievementID `json:"newlyUnlocked,omitempty"`

	Required  uint64  `json:"required,omitempty"`
	Available float64 `json:"available,omitempty"`
}

func (r PurchaseResult) OK() bool { return r.Outcome == PurchaseSucceeded }

// Err maps a failed outcome to its sentinel error, or nil on success.
func (r PurchaseResult) Err() error {
	switch r.Outcome {
	case PurchaseInsufficientFunds:
		return ErrInsufficientFunds
	case PurchaseUnknownUpgrade:
		return ErrUnknownUpgrade
	default:
		return nil
	}
}
