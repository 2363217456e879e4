package merge

import "github.com/pharmwatch/pharmwatch-backend/internal/feed"

// Join left-joins normalized price records with the promotion aggregates on
// barcode, producing one canonical record per usable price line. This is
// the single point where rows missing essential fields (empty barcode or
// unparsable price) are dropped; the count of dropped rows is returned, not
// an error. Output order is not guaranteed.
func Join(prices []feed.PriceRecord, promos map[string]PromoAggregate) ([]CanonicalRecord, int) {
	out := make([]CanonicalRecord, 0, len(prices))
	skipped := 0

	for _, p := range prices {
		if p.Barcode == "" || p.PriceMinor == nil {
			skipped++
			continue
		}

		rec := CanonicalRecord{
			Barcode:              p.Barcode,
			Name:                 p.Name,
			PriceMinor:           p.PriceMinor,
			Quantity:             p.Quantity,
			UnitKind:             p.UnitKind,
			UnitPriceMinorPer100: p.UnitPriceMinorPer100,
			UnitPriceLabel:       p.UnitPriceLabel,
			PromotionIDs:         []string{},
			RewardTypes:          []string{},
			Manufacturer:         p.Manufacturer,
			Country:              p.Country,
			Description:          p.Description,
			PriceUpdateDate:      p.PriceUpdateDate,
		}

		if agg, ok := promos[p.Barcode]; ok {
			rec.PromotionIDs = agg.PromotionIDs
			rec.RewardTypes = agg.RewardTypes
			rec.AnyGift = agg.AnyGift
			rec.AnyMulti = agg.AnyMulti
		}
		rec.HasPromo = len(rec.PromotionIDs) > 0

		out = append(out, rec)
	}

	return out, skipped
}
