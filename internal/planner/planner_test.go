package planner

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPlan(t *testing.T) {
	tests := []struct {
		name       string
		balance    string
		minReserve string
		fee        string
		feasible   bool
		amount     string
	}{
		{"spendable", "10.0", "0.05", "0.01", true, "9.94"},
		{"exactly reserve", "0.05", "0.05", "0.01", false, "0"},
		{"reserve plus fee", "0.06", "0.05", "0.01", false, "0"},
		{"one stroop over", "0.0600001", "0.05", "0.01", true, "0.0000001"},
		{"zero balance", "0", "0.05", "0.01", false, "0"},
		{"negative balance", "-5", "0.05", "0.01", false, "0"},
		{"negative balance negative reserve", "-5", "-10", "0.01", false, "0"},
		{"full precision", "123.4567891", "1", "0.01", true, "122.4467891"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Plan(d(tt.balance), d(tt.minReserve), d(tt.fee))
			assert.Equal(t, tt.feasible, plan.Feasible)
			assert.True(t, plan.Amount.Equal(d(tt.amount)), "amount %s, want %s", plan.Amount, tt.amount)
			assert.False(t, plan.Amount.IsNegative())
			assert.True(t, plan.Balance.Equal(d(tt.balance)))
		})
	}
}

func TestPlan_Property(t *testing.T) {
	reserve, fee := d("0.05"), d("0.01")
	for i := int64(0); i <= 2000; i += 7 {
		balance := decimal.New(i, -4)
		plan := Plan(balance, reserve, fee)
		if balance.LessThanOrEqual(reserve.Add(fee)) {
			assert.False(t, plan.Feasible, balance.String())
			assert.True(t, plan.Amount.IsZero(), balance.String())
			continue
		}
		assert.True(t, plan.Feasible, balance.String())
		assert.True(t, plan.Amount.Equal(balance.Sub(reserve).Sub(fee)), balance.String())
		assert.True(t, plan.Amount.IsPositive(), balance.String())
	}
}

func TestPlanner_Defaults(t *testing.T) {
	p := New(decimal.Zero, decimal.Zero)
	assert.True(t, p.MinReserve().Equal(DefaultMinReserve))
	assert.True(t, p.Fee().Equal(DefaultFee))

	plan := p.Plan(decimal.Zero)
	assert.False(t, plan.Feasible)

	plan = p.PlanWithReserve(d("10"), d("1"))
	assert.True(t, plan.Feasible)
	assert.True(t, plan.Amount.Equal(d("8.99")))
}

func TestParseReserve(t *testing.T) {
	fallback := d("0.05")
	tests := []struct {
		raw  string
		want string
	}{
		{"", "0.05"},
		{"  ", "0.05"},
		{"abc", "0.05"},
		{"0", "0.05"},
		{"-1", "0.05"},
		{"1.5", "1.5"},
		{" 2 ", "2"},
		{"0.1abc", "0.05"},
	}
	for _, tt := range tests {
		got := ParseReserve(tt.raw, fallback)
		assert.True(t, got.Equal(d(tt.want)), "ParseReserve(%q) = %s, want %s", tt.raw, got, tt.want)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"9.94", "9.9400000"},
		{"1.23456789", "1.2345678"},
		{"0.99999999", "0.9999999"},
		{"100", "100.0000000"},
		{"0.00000001", "0.0000000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(d(tt.in)), tt.in)
	}
}
