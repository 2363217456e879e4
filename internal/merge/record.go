package merge

import (
	"strings"

	"github.com/pharmwatch/pharmwatch-backend/pkg/enums"
)

// CanonicalRecord is the fully normalized, merged representation of one
// product's price-and-promotion state for one store on one day. Store
// identity and observation time are batch-scoped and carried by the
// ingestion job, not repeated per record.
type CanonicalRecord struct {
	Barcode              string
	Name                 *string
	PriceMinor           *int64
	Quantity             *float64
	UnitKind             enums.UnitKind
	UnitPriceMinorPer100 *int64
	UnitPriceLabel       *string
	HasPromo             bool
	PromotionIDs         []string
	RewardTypes          []string
	AnyGift              bool
	AnyMulti             bool
	Manufacturer         *string
	Country              *string
	Description          *string
	PriceUpdateDate      *string
}

// RewardTypesJoined renders the reward-type set in its canonical
// comma-joined form.
func (r CanonicalRecord) RewardTypesJoined() string {
	return strings.Join(r.RewardTypes, ",")
}

// PromotionIDsJoined renders the promotion-id set in its canonical
// comma-joined form.
func (r CanonicalRecord) PromotionIDsJoined() string {
	return strings.Join(r.PromotionIDs, ",")
}

// Persistable reports whether the record carries the fields required to
// reach the catalog and history tables.
func (r CanonicalRecord) Persistable() bool {
	return r.Barcode != "" && r.PriceMinor != nil
}
