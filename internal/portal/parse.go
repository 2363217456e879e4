package portal

import (
	"compress/gzip"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pharmwatch/pharmwatch-backend/internal/feed"
)

// Feed archives are OrderXml documents; every item sits in a <Line>
// element whose children are flat name/value pairs.

// PriceFullColumns is the column order of a per-feed prices CSV.
var PriceFullColumns = []string{
	"PriceUpdateDate", "ItemCode", "ItemName", "ManufacturerName", "ManufactureCountry",
	"ManufacturerItemDescription", "UnitQty", "Quantity", "UnitOfMeasure", "blsWeighted",
	"QtyInPackage", "ItemPrice", "UnitOfMeasurePrice", "AllowDiscount", "ItemStatus",
}

// PromoFullColumns is the column order of a per-feed promotions CSV.
var PromoFullColumns = []string{
	"PriceUpdateDate", "ItemCode", "IsGiftItem", "RewardType", "AllowMultipleDiscounts", "PromotionId",
}

// ParseArchive streams the <Line> elements of a (possibly gzipped) feed
// archive, invoking fn once per line. Parsing stops on the first fn error.
func ParseArchive(path string, fn func(feed.RawLine) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("decompressing %s: %w", path, err)
		}
		defer gz.Close()
		reader = gz
	}

	return parseLines(reader, fn)
}

// ReadArchive collects every line of an archive in memory.
func ReadArchive(path string) ([]feed.RawLine, error) {
	var lines []feed.RawLine
	err := ParseArchive(path, func(line feed.RawLine) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func parseLines(r io.Reader, fn func(feed.RawLine) error) error {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading feed xml: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Line" {
			continue
		}

		line, err := decodeLine(dec, start)
		if err != nil {
			return err
		}
		if err := fn(line); err != nil {
			return err
		}
	}
}

func decodeLine(dec *xml.Decoder, start xml.StartElement) (feed.RawLine, error) {
	line := feed.RawLine{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading feed xml line: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var text string
			if err := dec.DecodeElement(&text, &t); err != nil {
				return nil, fmt.Errorf("decoding %s: %w", t.Name.Local, err)
			}
			line[t.Name.Local] = strings.TrimSpace(text)
		case xml.EndElement:
			if t.Name == start.Name {
				return line, nil
			}
		}
	}
}

// WriteFeedCSV writes raw feed lines as a per-feed audit CSV with the
// column set fixed by the archive kind.
func WriteFeedCSV(path, kind string, lines []feed.RawLine) error {
	var columns []string
	switch strings.ToLower(kind) {
	case "pricefull", "price":
		columns = PriceFullColumns
	case "promofull", "promo":
		columns = PromoFullColumns
	default:
		return fmt.Errorf("unsupported feed kind %q", kind)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, line := range lines {
		for i, col := range columns {
			row[i] = line.Get(col)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
