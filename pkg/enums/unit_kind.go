package enums

import "fmt"

// UnitKind classifies the sale unit of a product. Only weight and volume
// kinds yield a meaningful per-100 unit price.
type UnitKind string

const (
	UnitKindGram       UnitKind = "gram"
	UnitKindMilliliter UnitKind = "milliliter"
	UnitKindUnit       UnitKind = "unit"
	UnitKindUnknown    UnitKind = "unknown"
)

var validUnitKinds = []UnitKind{
	UnitKindGram,
	UnitKindMilliliter,
	UnitKindUnit,
	UnitKindUnknown,
}

// String implements fmt.Stringer.
func (u UnitKind) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UnitKind.
func (u UnitKind) IsValid() bool {
	for _, candidate := range validUnitKinds {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsMeasurable reports whether a per-100 unit price makes sense for the kind.
func (u UnitKind) IsMeasurable() bool {
	return u == UnitKindGram || u == UnitKindMilliliter
}

// ParseUnitKind converts raw input into a UnitKind.
func ParseUnitKind(value string) (UnitKind, error) {
	for _, candidate := range validUnitKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit kind %q", value)
}
