package services

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RateSchedule is one version of the platform's commission rates. The version is stored on every
// transaction so older records can be recomputed with the rates in force when they were written.
type RateSchedule struct {
	Version       string
	CaregiverRate decimal.Decimal
	ClientRate    decimal.Decimal
}

var rateSchedules = map[string]RateSchedule{
	"v1": {Version: "v1", CaregiverRate: decimal.RequireFromString("0.15"), ClientRate: decimal.RequireFromString("0.02")},
	"v2": {Version: "v2", CaregiverRate: decimal.RequireFromString("0.05"), ClientRate: decimal.RequireFromString("0.02")},
}

// LookupRateSchedule returns the schedule registered under version.
func LookupRateSchedule(version string) (RateSchedule, error) {
	s, ok := rateSchedules[version]
	if !ok {
		return RateSchedule{}, fmt.Errorf("unknown commission rate version %q", version)
	}
	return s, nil
}

// Split is the commission breakdown of one payment, in major units.
type Split struct {
	Amount              decimal.Decimal
	CaregiverCommission decimal.Decimal
	ClientFee           decimal.Decimal
	TotalRevenue        decimal.Decimal
}

// ToMajorUnits converts a gateway amount in minor units into display major units.
func ToMajorUnits(minor int64, fxRate float64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)).Mul(decimal.NewFromFloat(fxRate))
}

// Apply computes the split for amount. Negative amounts are clamped to zero.
func (s RateSchedule) Apply(amount decimal.Decimal) Split {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	caregiver := amount.Mul(s.CaregiverRate)
	client := amount.Mul(s.ClientRate)
	return Split{
		Amount:              amount,
		CaregiverCommission: caregiver,
		ClientFee:           client,
		TotalRevenue:        caregiver.Add(client),
	}
}
