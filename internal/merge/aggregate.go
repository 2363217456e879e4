package merge

import (
	"sort"

	"github.com/pharmwatch/pharmwatch-backend/internal/feed"
)

// PromoAggregate is the reduction of every promotion line for one barcode
// in a batch. Sets are sorted and deduplicated so the same multiset of
// lines always aggregates to byte-identical output, whatever the input
// order.
type PromoAggregate struct {
	PromotionIDs []string
	RewardTypes  []string
	AnyGift      bool
	AnyMulti     bool
}

// AggregatePromotions groups normalized promotion lines by barcode and
// reduces each group deterministically. Barcodes with no promotion lines
// are simply absent; the join supplies empty defaults.
func AggregatePromotions(promos []feed.PromoRecord) map[string]PromoAggregate {
	ids := make(map[string]map[string]struct{})
	rewards := make(map[string]map[string]struct{})
	gift := make(map[string]bool)
	multi := make(map[string]bool)

	for _, p := range promos {
		if p.Barcode == "" {
			continue
		}
		if _, ok := ids[p.Barcode]; !ok {
			ids[p.Barcode] = make(map[string]struct{})
			rewards[p.Barcode] = make(map[string]struct{})
		}
		if p.PromotionID != "" {
			ids[p.Barcode][p.PromotionID] = struct{}{}
		}
		if p.RewardType != "" {
			rewards[p.Barcode][p.RewardType] = struct{}{}
		}
		gift[p.Barcode] = gift[p.Barcode] || p.IsGift
		multi[p.Barcode] = multi[p.Barcode] || p.AllowMulti
	}

	out := make(map[string]PromoAggregate, len(ids))
	for barcode := range ids {
		out[barcode] = PromoAggregate{
			PromotionIDs: sortedKeys(ids[barcode]),
			RewardTypes:  sortedKeys(rewards[barcode]),
			AnyGift:      gift[barcode],
			AnyMulti:     multi[barcode],
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
