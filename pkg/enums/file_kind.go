package enums

import "fmt"

// FileKind identifies which source feed an ingested file came from.
type FileKind string

const (
	FileKindPrices FileKind = "prices"
	FileKindPromos FileKind = "promos"
	FileKindMerged FileKind = "merged"
)

var validFileKinds = []FileKind{
	FileKindPrices,
	FileKindPromos,
	FileKindMerged,
}

// String implements fmt.Stringer.
func (f FileKind) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FileKind.
func (f FileKind) IsValid() bool {
	for _, candidate := range validFileKinds {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFileKind converts raw input into a FileKind.
func ParseFileKind(value string) (FileKind, error) {
	for _, candidate := range validFileKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid file kind %q", value)
}
