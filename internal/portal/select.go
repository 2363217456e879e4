package portal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pharmwatch/pharmwatch-backend/pkg/errors"
)

// SelectLatest picks the freshest candidate file name of one kind for a
// store, optionally restricted to an ISO date. Pure over the candidate
// list: names that don't follow the portal convention are skipped. The
// boolean is false when nothing matches.
func SelectLatest(candidates []string, kind, storeID, isoDate string) (string, bool) {
	datePrefix := strings.ReplaceAll(isoDate, "-", "")

	var best, bestTS string
	for _, name := range candidates {
		meta, ok := ParseArchiveName(name)
		if !ok {
			continue
		}
		if !strings.EqualFold(meta.Kind, kind) || meta.StoreID != storeID {
			continue
		}
		if datePrefix != "" && !strings.HasPrefix(meta.PublishedTS, datePrefix) {
			continue
		}
		if meta.PublishedTS > bestTS {
			bestTS = meta.PublishedTS
			best = name
		}
	}
	return best, best != ""
}

// LatestLocal applies SelectLatest to the archives already on disk.
// Absence is a MISSING_SOURCE error: the pipeline must fail fast rather
// than load a partial day.
func LatestLocal(dir, kind, storeID, isoDate string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", pkgerrors.New(pkgerrors.CodeMissingSource, fmt.Sprintf("no %s archive for store %s: %s does not exist", kind, storeID, dir))
		}
		return "", fmt.Errorf("reading %s: %w", dir, err)
	}

	candidates := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			candidates = append(candidates, entry.Name())
		}
	}

	best, ok := SelectLatest(candidates, kind, storeID, isoDate)
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeMissingSource, fmt.Sprintf("no %s archive for store %s on %s in %s", kind, storeID, isoDate, dir))
	}
	return filepath.Join(dir, best), nil
}
