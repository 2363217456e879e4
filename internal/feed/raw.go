package feed

import "strings"

// Field names as they appear in the chain's published files. Older dumps
// occasionally carry the lowercase aliases, so readers should go through
// RawLine.First with the alias list.
const (
	FieldItemCode        = "ItemCode"
	FieldItemName        = "ItemName"
	FieldItemPrice       = "ItemPrice"
	FieldQuantity        = "Quantity"
	FieldUnitQty         = "UnitQty"
	FieldManufacturer    = "ManufacturerName"
	FieldCountry         = "ManufactureCountry"
	FieldDescription     = "ManufacturerItemDescription"
	FieldPriceUpdateDate = "PriceUpdateDate"

	FieldPromotionID = "PromotionId"
	FieldRewardType  = "RewardType"
	FieldIsGiftItem  = "IsGiftItem"
	FieldAllowMulti  = "AllowMultipleDiscounts"
)

// RawLine is one untyped record from a source feed: field name to string
// value, no typing guarantees, fields may be absent or malformed.
type RawLine map[string]string

// Get returns the trimmed value for the field, or "" when absent.
func (l RawLine) Get(field string) string {
	return strings.TrimSpace(l[field])
}

// First returns the trimmed value of the first present, non-empty field.
func (l RawLine) First(fields ...string) string {
	for _, f := range fields {
		if v := strings.TrimSpace(l[f]); v != "" {
			return v
		}
	}
	return ""
}
