package feed

import (
	"testing"

	"github.com/pharmwatch/pharmwatch-backend/pkg/enums"
)

func TestParseMinorUnitsBothSeparators(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"12.50", 1250},
		{"12,50", 1250},
		{"10.00", 1000},
		{"0.05", 5},
		{"3", 300},
		{"7.995", 800},
		{" 5.90 ", 590},
	}
	for _, tc := range cases {
		got := ParseMinorUnits(tc.in)
		if got == nil {
			t.Fatalf("ParseMinorUnits(%q) = nil, want %d", tc.in, tc.want)
		}
		if *got != tc.want {
			t.Fatalf("ParseMinorUnits(%q) = %d, want %d", tc.in, *got, tc.want)
		}
	}
}

func TestParseMinorUnitsMalformed(t *testing.T) {
	for _, in := range []string{"", "abc", "12.5.0", "-3.00", "N/A"} {
		if got := ParseMinorUnits(in); got != nil {
			t.Fatalf("ParseMinorUnits(%q) = %d, want nil", in, *got)
		}
	}
}

func TestClassifyUnitVocabulary(t *testing.T) {
	cases := []struct {
		in   string
		want enums.UnitKind
	}{
		{"גרם", enums.UnitKindGram},
		{"ג'", enums.UnitKindGram},
		{"גר", enums.UnitKindGram},
		{`מ"ל`, enums.UnitKindMilliliter},
		{"מ״ל", enums.UnitKindMilliliter},
		{"מל", enums.UnitKindMilliliter},
		{"מיליליטר", enums.UnitKindMilliliter},
		{`100 מ"ל`, enums.UnitKindMilliliter},
		{"יחידה", enums.UnitKindUnit},
		{"יח'", enums.UnitKindUnit},
		{"unit", enums.UnitKindUnit},
		{"", enums.UnitKindUnknown},
		{"קופסה", enums.UnitKindUnknown},
		{"oz", enums.UnitKindUnknown},
	}
	for _, tc := range cases {
		if got := ClassifyUnit(tc.in); got != tc.want {
			t.Fatalf("ClassifyUnit(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseFlagTokens(t *testing.T) {
	for _, in := range []string{"1", "true", "TRUE", "yes", "Y", "t"} {
		if !ParseFlag(in) {
			t.Fatalf("ParseFlag(%q) = false, want true", in)
		}
	}
	for _, in := range []string{"", "0", "false", "no", "2", "gift"} {
		if ParseFlag(in) {
			t.Fatalf("ParseFlag(%q) = true, want false", in)
		}
	}
}

func TestNormalizePriceTypical(t *testing.T) {
	rec := NormalizePrice(RawLine{
		"ItemCode":                    " 7290000000001 ",
		"ItemName":                    "שמפו לילדים",
		"ItemPrice":                   "12,50",
		"Quantity":                    "250",
		"UnitQty":                     "גרם",
		"ManufacturerName":            "Acme",
		"ManufactureCountry":          "IL",
		"ManufacturerItemDescription": "",
	})

	if rec.Barcode != "7290000000001" {
		t.Fatalf("barcode = %q", rec.Barcode)
	}
	if rec.PriceMinor == nil || *rec.PriceMinor != 1250 {
		t.Fatalf("price minor = %v, want 1250", rec.PriceMinor)
	}
	if rec.UnitKind != enums.UnitKindGram {
		t.Fatalf("unit kind = %s", rec.UnitKind)
	}
	if rec.UnitPriceMinorPer100 == nil || *rec.UnitPriceMinorPer100 != 500 {
		t.Fatalf("unit price = %v, want 500", rec.UnitPriceMinorPer100)
	}
	if rec.UnitPriceLabel == nil || *rec.UnitPriceLabel != LabelPer100g {
		t.Fatalf("label = %v", rec.UnitPriceLabel)
	}
	if rec.Description != nil {
		t.Fatalf("empty description should normalize to nil, got %q", *rec.Description)
	}
}

func TestNormalizePriceMalformedDegradesNeverFails(t *testing.T) {
	rec := NormalizePrice(RawLine{
		"ItemCode":  "111",
		"ItemPrice": "free!",
		"Quantity":  "many",
		"UnitQty":   "???",
	})
	if rec.PriceMinor != nil {
		t.Fatal("unparsable price should yield nil")
	}
	if rec.Quantity != nil {
		t.Fatal("unparsable quantity should yield nil")
	}
	if rec.UnitKind != enums.UnitKindUnknown {
		t.Fatalf("unit kind = %s, want unknown", rec.UnitKind)
	}
	if rec.UnitPriceMinorPer100 != nil {
		t.Fatal("no unit price without a price")
	}
}

func TestNormalizePriceMissingBarcode(t *testing.T) {
	rec := NormalizePrice(RawLine{"ItemPrice": "9.90"})
	if rec.Barcode != "" {
		t.Fatalf("barcode = %q, want empty", rec.Barcode)
	}
}

func TestNormalizePromo(t *testing.T) {
	rec := NormalizePromo(RawLine{
		"ItemCode":               " 111 ",
		"PromotionId":            "P1",
		"RewardType":             "club",
		"IsGiftItem":             "1",
		"AllowMultipleDiscounts": "maybe",
	})
	if rec.Barcode != "111" || rec.PromotionID != "P1" || rec.RewardType != "club" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !rec.IsGift {
		t.Fatal("IsGift should be true for token 1")
	}
	if rec.AllowMulti {
		t.Fatal("unknown token should coerce to false")
	}
}
