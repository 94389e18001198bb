// Package planner decides how much of a balance can be moved while leaving
// the account reserve and a fee margin behind.
package planner

import (
	"strings"

	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
	"github.com/shopspring/decimal"
)

// AmountPrecision is the number of fractional digits the ledger stores.
const AmountPrecision = 7

// Policy defaults.
var (
	DefaultMinReserve = decimal.RequireFromString("0.05")
	DefaultFee        = decimal.RequireFromString("0.01")
)

// Plan computes sendable = balance - minReserve - fee. The plan is feasible
// only when sendable is strictly positive; otherwise Amount is zero.
func Plan(balance, minReserve, fee decimal.Decimal) models.TransferPlan {
	plan := models.TransferPlan{
		Amount:     decimal.Zero,
		Balance:    balance,
		MinReserve: minReserve,
		Fee:        fee,
	}
	if balance.IsNegative() {
		return plan
	}

	sendable := balance.Sub(minReserve).Sub(fee)
	if sendable.IsPositive() {
		plan.Feasible = true
		plan.Amount = sendable
	}
	return plan
}

// Planner applies a fixed fee and a default reserve that callers may override.
type Planner struct {
	minReserve decimal.Decimal
	fee        decimal.Decimal
}

// New returns a Planner. Non-positive arguments fall back to the package
// defaults.
func New(minReserve, fee decimal.Decimal) *Planner {
	if !minReserve.IsPositive() {
		minReserve = DefaultMinReserve
	}
	if !fee.IsPositive() {
		fee = DefaultFee
	}
	return &Planner{minReserve: minReserve, fee: fee}
}

// MinReserve returns the default reserve.
func (p *Planner) MinReserve() decimal.Decimal { return p.minReserve }

// Fee returns the planning fee margin.
func (p *Planner) Fee() decimal.Decimal { return p.fee }

// Plan plans against the default reserve.
func (p *Planner) Plan(balance decimal.Decimal) models.TransferPlan {
	return Plan(balance, p.minReserve, p.fee)
}

// PlanWithReserve plans against a caller-supplied reserve.
func (p *Planner) PlanWithReserve(balance, minReserve decimal.Decimal) models.TransferPlan {
	return Plan(balance, minReserve, p.fee)
}

// ParseReserve coerces a caller-supplied reserve. Empty, non-numeric, zero and
// negative input all yield fallback.
func ParseReserve(raw string, fallback decimal.Decimal) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || !v.IsPositive() {
		return fallback
	}
	return v
}

// Truncate cuts an amount down to ledger precision. It never rounds up.
func Truncate(amount decimal.Decimal) decimal.Decimal {
	return amount.Truncate(AmountPrecision)
}

// FormatAmount renders an amount with exactly AmountPrecision digits,
// truncating any excess.
func FormatAmount(amount decimal.Decimal) string {
	return Truncate(amount).StringFixed(AmountPrecision)
}
