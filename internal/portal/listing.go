package portal

import (
	"regexp"
	"time"
)

// Category is a portal file category as the price portal names them.
type Category string

const (
	CategoryPrice     Category = "Price"
	CategoryPriceFull Category = "PriceFull"
	CategoryPromo     Category = "Promo"
	CategoryPromoFull Category = "PromoFull"
)

// Listing is one row of the portal's file grid.
type Listing struct {
	Branch      string
	Category    string
	Date        string
	Name        string
	DownloadURL string
}

// ArchiveMeta is the identity encoded in a portal archive name, e.g.
// PriceFull7290172900007-072-202508280700.gz.
type ArchiveMeta struct {
	Kind        string
	ChainID     string
	StoreID     string
	PublishedTS string
}

var archiveNameRe = regexp.MustCompile(`(?i)(PromoFull|Promo|PriceFull|Price)(\d+)-(\d+)-(\d{12})`)

// ParseArchiveName extracts the archive identity from a portal file name.
// The boolean is false when the name does not follow the portal convention.
func ParseArchiveName(name string) (ArchiveMeta, bool) {
	m := archiveNameRe.FindStringSubmatch(name)
	if m == nil {
		return ArchiveMeta{}, false
	}
	return ArchiveMeta{
		Kind:        m[1],
		ChainID:     m[2],
		StoreID:     m[3],
		PublishedTS: m[4],
	}, true
}

// DetectKind classifies an archive by its file name alone.
func DetectKind(name string) string {
	if meta, ok := ParseArchiveName(name); ok {
		return meta.Kind
	}
	return "unknown"
}

// toPortalDate converts an ISO date to the DD/MM/YYYY form the portal's
// grid filter expects. Anything unparseable passes through untouched.
func toPortalDate(s string) string {
	if s == "" {
		return ""
	}
	if dt, err := time.Parse("2006-01-02", s); err == nil {
		return dt.Format("02/01/2006")
	}
	return s
}
