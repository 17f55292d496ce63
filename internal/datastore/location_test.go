package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/psicash/internal/common"
	"github.com/stretchr/testify/require"
)

func TestEnsureLocation_ExistingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ensureLocation(dir))
}

func TestEnsureLocation_CreatesOneMissingSegment(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "psicash")

	require.NoError(t, ensureLocation(dir))

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	// second call is a no-op
	require.NoError(t, ensureLocation(dir))
}

func TestEnsureLocation_TrailingSeparator(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "psicash") + string(filepath.Separator)
	require.NoError(t, ensureLocation(dir))
}

func TestEnsureLocation_DeepMissingPathFails(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "a", "b", "c", "d", "f", "g")

	err := ensureLocation(dir)
	require.ErrorIs(t, err, common.ErrStorageUnavailable)

	_, statErr := os.Stat(filepath.Join(base, "a"))
	require.True(t, os.IsNotExist(statErr), "no intermediate directory may be created")
}

func TestEnsureLocation_EmptyIsInvalidArgument(t *testing.T) {
	require.ErrorIs(t, ensureLocation(""), common.ErrInvalidArgument)
}

func TestEnsureLocation_RegularFileFails(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o600))

	require.ErrorIs(t, ensureLocation(f), common.ErrStorageUnavailable)
}

func TestEnsureLocation_ParentIsFileFails(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o600))

	require.ErrorIs(t, ensureLocation(filepath.Join(f, "sub")), common.ErrStorageUnavailable)
}
