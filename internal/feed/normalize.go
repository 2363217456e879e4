package feed

import (
	"strconv"
	"strings"

	"github.com/pharmwatch/pharmwatch-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// PriceRecord is one typed, normalized price line. A nil Barcode-equivalent
// (empty string) or nil PriceMinor marks the record as unusable; the merge
// stage drops it and counts the skip.
type PriceRecord struct {
	Barcode              string
	Name                 *string
	PriceMinor           *int64
	Quantity             *float64
	UnitKind             enums.UnitKind
	UnitPriceMinorPer100 *int64
	UnitPriceLabel       *string
	Manufacturer         *string
	Country              *string
	Description          *string
	PriceUpdateDate      *string
}

// PromoRecord is one typed, normalized promotion line.
type PromoRecord struct {
	Barcode     string
	PromotionID string
	RewardType  string
	IsGift      bool
	AllowMulti  bool
}

// NormalizePrice converts a raw price line into a typed record. Malformed
// numeric fields degrade to nil; the function never fails.
func NormalizePrice(raw RawLine) PriceRecord {
	rec := PriceRecord{
		Barcode:         raw.First(FieldItemCode, "barcode"),
		Name:            emptyToNil(raw.First(FieldItemName, "name")),
		PriceMinor:      ParseMinorUnits(raw.First(FieldItemPrice, "price")),
		Quantity:        ParseQuantity(raw.First(FieldQuantity, "quantity")),
		UnitKind:        ClassifyUnit(raw.First(FieldUnitQty, "unit_qty_text")),
		Manufacturer:    emptyToNil(raw.Get(FieldManufacturer)),
		Country:         emptyToNil(raw.Get(FieldCountry)),
		Description:     emptyToNil(raw.Get(FieldDescription)),
		PriceUpdateDate: emptyToNil(raw.Get(FieldPriceUpdateDate)),
	}
	rec.UnitPriceMinorPer100, rec.UnitPriceLabel = Per100(rec.PriceMinor, rec.Quantity, rec.UnitKind)
	return rec
}

// NormalizePromo converts a raw promotion line into a typed record.
func NormalizePromo(raw RawLine) PromoRecord {
	return PromoRecord{
		Barcode:     raw.First(FieldItemCode, "barcode"),
		PromotionID: raw.Get(FieldPromotionID),
		RewardType:  raw.Get(FieldRewardType),
		IsGift:      ParseFlag(raw.Get(FieldIsGiftItem)),
		AllowMulti:  ParseFlag(raw.Get(FieldAllowMulti)),
	}
}

// ParseMinorUnits converts a decimal price string into integer minor
// currency units, accepting both "." and "," as the decimal separator and
// rounding half away from zero. Returns nil for anything unparsable or
// negative.
func ParseMinorUnits(s string) *int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	if d.IsNegative() {
		return nil
	}
	minor := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return &minor
}

// ParseQuantity parses a positive-or-zero real quantity; malformed input
// degrades to nil.
func ParseQuantity(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return nil
	}
	q, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &q
}

var truthyTokens = map[string]bool{
	"1": true, "true": true, "yes": true, "y": true, "t": true,
}

// ParseFlag coerces the accepted truthy tokens to true; anything else,
// including malformed input, is false.
func ParseFlag(s string) bool {
	return truthyTokens[strings.ToLower(strings.TrimSpace(s))]
}

// unitLabels maps the fixed vocabulary of unit-label strings the feeds use
// to their canonical kind. The mapping is enumerated data, not inferred;
// unlisted labels classify as unknown.
var unitLabels = map[string]enums.UnitKind{
	"גרם": enums.UnitKindGram,
	"ג'":  enums.UnitKindGram,
	"ג":   enums.UnitKindGram,
	"גר":  enums.UnitKindGram,

	"מל":        enums.UnitKindMilliliter,
	`מ"ל`:       enums.UnitKindMilliliter,
	"מ״ל":       enums.UnitKindMilliliter,
	"מ”ל":       enums.UnitKindMilliliter,
	"מיליליטר":  enums.UnitKindMilliliter,
	"מיליליטרים": enums.UnitKindMilliliter,

	"יחידה":  enums.UnitKindUnit,
	"יח'":    enums.UnitKindUnit,
	"יחידות": enums.UnitKindUnit,
	"unit":   enums.UnitKindUnit,
}

// substrings that identify milliliter labels embedded in longer text,
// e.g. `100 מ"ל` with assorted quote glyphs.
var milliliterMarkers = []string{`מ"ל`, "מ״ל", "מ”ל", "מיליליטר"}

// ClassifyUnit maps a unit-label string to its canonical kind. Ambiguous or
// unseen labels degrade silently to unknown.
func ClassifyUnit(text string) enums.UnitKind {
	t := strings.TrimSpace(text)
	if t == "" {
		return enums.UnitKindUnknown
	}
	if kind, ok := unitLabels[t]; ok {
		return kind
	}
	for _, marker := range milliliterMarkers {
		if strings.Contains(t, marker) {
			return enums.UnitKindMilliliter
		}
	}
	return enums.UnitKindUnknown
}

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
