package feed

import (
	"testing"

	"github.com/pharmwatch/pharmwatch-backend/pkg/enums"
)

func ptrI64(v int64) *int64     { return &v }
func ptrF64(v float64) *float64 { return &v }

func TestPer100ExactFractions(t *testing.T) {
	cases := []struct {
		price     int64
		qty       float64
		kind      enums.UnitKind
		wantValue int64
		wantLabel string
	}{
		{1250, 250, enums.UnitKindGram, 500, LabelPer100g},
		{500, 250, enums.UnitKindGram, 200, LabelPer100g},
		{1000, 200, enums.UnitKindMilliliter, 500, LabelPer100ml},
		{999, 1000, enums.UnitKindGram, 100, LabelPer100g},
		{333, 100, enums.UnitKindMilliliter, 333, LabelPer100ml},
	}
	for _, tc := range cases {
		value, label := Per100(ptrI64(tc.price), ptrF64(tc.qty), tc.kind)
		if value == nil || label == nil {
			t.Fatalf("Per100(%d, %v, %s) = nil", tc.price, tc.qty, tc.kind)
		}
		if *value != tc.wantValue || *label != tc.wantLabel {
			t.Fatalf("Per100(%d, %v, %s) = (%d, %s), want (%d, %s)",
				tc.price, tc.qty, tc.kind, *value, *label, tc.wantValue, tc.wantLabel)
		}
	}
}

func TestPer100Undefined(t *testing.T) {
	cases := []struct {
		name  string
		price *int64
		qty   *float64
		kind  enums.UnitKind
	}{
		{"nil price", nil, ptrF64(250), enums.UnitKindGram},
		{"nil quantity", ptrI64(1250), nil, enums.UnitKindGram},
		{"zero quantity", ptrI64(1250), ptrF64(0), enums.UnitKindGram},
		{"negative quantity", ptrI64(1250), ptrF64(-5), enums.UnitKindGram},
		{"discrete unit", ptrI64(1250), ptrF64(250), enums.UnitKindUnit},
		{"unknown unit", ptrI64(1250), ptrF64(250), enums.UnitKindUnknown},
	}
	for _, tc := range cases {
		value, label := Per100(tc.price, tc.qty, tc.kind)
		if value != nil || label != nil {
			t.Fatalf("%s: Per100 should be undefined", tc.name)
		}
	}
}
