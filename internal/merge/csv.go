package merge

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pharmwatch/pharmwatch-backend/internal/feed"
	"github.com/pharmwatch/pharmwatch-backend/pkg/enums"
	pkgerrors "github.com/pharmwatch/pharmwatch-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// CanonicalColumns is the exact header of the canonical intermediate file.
var CanonicalColumns = []string{
	"barcode", "name", "price", "quantity", "qty_unit",
	"computed_unit_price", "computed_unit_label",
	"has_promo", "PromotionIds", "RewardTypes", "AnyGift", "AnyMulti",
	"manufacturer", "country", "description", "price_update_date",
}

// WriteCanonical writes the canonical CSV for one batch, sorted by
// (name, barcode) so output for the same input is byte-identical.
func WriteCanonical(w io.Writer, records []CanonicalRecord) error {
	sorted := make([]CanonicalRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		ni, nj := strDeref(sorted[i].Name), strDeref(sorted[j].Name)
		if ni != nj {
			return ni < nj
		}
		return sorted[i].Barcode < sorted[j].Barcode
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(CanonicalColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, rec := range sorted {
		row := []string{
			rec.Barcode,
			strDeref(rec.Name),
			minorToMajor(rec.PriceMinor),
			formatQuantity(rec.Quantity),
			rec.UnitKind.String(),
			minorToMajor(rec.UnitPriceMinorPer100),
			strDeref(rec.UnitPriceLabel),
			strconv.FormatBool(rec.HasPromo),
			rec.PromotionIDsJoined(),
			rec.RewardTypesJoined(),
			flagDigit(rec.AnyGift),
			flagDigit(rec.AnyMulti),
			strDeref(rec.Manufacturer),
			strDeref(rec.Country),
			strDeref(rec.Description),
			strDeref(rec.PriceUpdateDate),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row for %s: %w", rec.Barcode, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCanonicalFile writes the canonical CSV to path, creating parent
// directories as needed.
func WriteCanonicalFile(path string, records []CanonicalRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteCanonical(f, records); err != nil {
		return err
	}
	return f.Sync()
}

// ReadCanonical parses a canonical CSV back into records. Header order is
// not trusted; columns are resolved by name.
func ReadCanonical(r io.Reader) ([]CanonicalRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, pkgerrors.New(pkgerrors.CodeMissingSource, "canonical file has no header")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	if _, ok := idx["barcode"]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeMissingSource, "canonical file missing barcode column")
	}

	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []CanonicalRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}

		kind := enums.UnitKindUnknown
		if parsed, err := enums.ParseUnitKind(field(row, "qty_unit")); err == nil {
			kind = parsed
		}

		rec := CanonicalRecord{
			Barcode:              field(row, "barcode"),
			Name:                 emptyToNil(field(row, "name")),
			PriceMinor:           feed.ParseMinorUnits(field(row, "price")),
			Quantity:             feed.ParseQuantity(field(row, "quantity")),
			UnitKind:             kind,
			UnitPriceMinorPer100: feed.ParseMinorUnits(field(row, "computed_unit_price")),
			UnitPriceLabel:       emptyToNil(field(row, "computed_unit_label")),
			HasPromo:             feed.ParseFlag(field(row, "has_promo")),
			PromotionIDs:         splitSet(field(row, "PromotionIds")),
			RewardTypes:          splitSet(field(row, "RewardTypes")),
			AnyGift:              feed.ParseFlag(field(row, "AnyGift")),
			AnyMulti:             feed.ParseFlag(field(row, "AnyMulti")),
			Manufacturer:         emptyToNil(field(row, "manufacturer")),
			Country:              emptyToNil(field(row, "country")),
			Description:          emptyToNil(field(row, "description")),
			PriceUpdateDate:      emptyToNil(field(row, "price_update_date")),
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadCanonicalFile opens and parses a canonical CSV. A missing file is a
// MISSING_SOURCE error, distinct from an empty result.
func ReadCanonicalFile(path string) ([]CanonicalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeMissingSource, err, fmt.Sprintf("canonical file %s not found", path))
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ReadCanonical(f)
}

func minorToMajor(minor *int64) string {
	if minor == nil {
		return ""
	}
	return decimal.NewFromInt(*minor).Div(decimal.NewFromInt(100)).StringFixed(2)
}

func formatQuantity(q *float64) string {
	if q == nil {
		return ""
	}
	return strconv.FormatFloat(*q, 'f', -1, 64)
}

func flagDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func splitSet(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
