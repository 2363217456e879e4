package feed

import (
	"github.com/pharmwatch/pharmwatch-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

const (
	LabelPer100g  = "per_100g"
	LabelPer100ml = "per_100ml"
)

// Per100 derives the price per 100 units of measure in minor currency
// units. It returns (nil, nil) when the price or quantity is missing, the
// quantity is non-positive, or the unit kind has no meaningful measure.
func Per100(priceMinor *int64, quantity *float64, kind enums.UnitKind) (*int64, *string) {
	if priceMinor == nil || quantity == nil || *quantity <= 0 {
		return nil, nil
	}
	if !kind.IsMeasurable() {
		return nil, nil
	}

	qty := decimal.NewFromFloat(*quantity)
	value := decimal.NewFromInt(*priceMinor).
		Mul(decimal.NewFromInt(100)).
		DivRound(qty, 0).
		IntPart()

	label := LabelPer100g
	if kind == enums.UnitKindMilliliter {
		label = LabelPer100ml
	}
	return &value, &label
}
