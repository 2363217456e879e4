package portal

import (
	"os"
	"path/filepath"
	"testing"

	pkgerrors "github.com/pharmwatch/pharmwatch-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touchFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
}

func TestLatestLocalPicksFreshest(t *testing.T) {
	dir := t.TempDir()
	touchFiles(t, dir,
		"PriceFull7290172900007-072-202508280700.gz",
		"PriceFull7290172900007-072-202508281330.gz",
		"PriceFull7290172900007-105-202508281400.gz",
		"PromoFull7290172900007-072-202508280915.gz",
		"notes.txt",
	)

	path, err := LatestLocal(dir, "PriceFull", "072", "2025-08-28")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "PriceFull7290172900007-072-202508281330.gz"), path)

	path, err = LatestLocal(dir, "PromoFull", "072", "2025-08-28")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "PromoFull7290172900007-072-202508280915.gz"), path)
}

func TestLatestLocalIgnoresOtherDates(t *testing.T) {
	dir := t.TempDir()
	touchFiles(t, dir, "PriceFull7290172900007-072-202508270700.gz")

	_, err := LatestLocal(dir, "PriceFull", "072", "2025-08-28")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeMissingSource))
}

func TestSelectLatestIsPureOverCandidates(t *testing.T) {
	candidates := []string{
		"PriceFull7290172900007-072-202508280700.gz",
		"PriceFull7290172900007-072-202508281330.gz",
		"garbage.bin",
	}

	best, ok := SelectLatest(candidates, "PriceFull", "072", "")
	require.True(t, ok)
	assert.Equal(t, "PriceFull7290172900007-072-202508281330.gz", best)

	_, ok = SelectLatest(candidates, "PromoFull", "072", "")
	assert.False(t, ok)
}

func TestLatestLocalMissingDir(t *testing.T) {
	_, err := LatestLocal(filepath.Join(t.TempDir(), "absent"), "PriceFull", "072", "")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeMissingSource))
}
