package save

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	fs, err := NewFileStore(filepath.Join(t.TempDir(), "file"))
	require.NoError(t, err)

	db, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "sqlite", "saves.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]Store{
		BackendMemory: NewMemoryStore(),
		BackendFile:   fs,
		BackendSQLite: db,
	}
}

func TestStores_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, found, err := st.Load(ctx, "p1")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, st.Save(ctx, "p1", []byte(`{"version":1,"currency":5}`)))
			require.NoError(t, st.Save(ctx, "p2", []byte(`{"version":1,"currency":7}`)))
			require.NoError(t, st.Save(ctx, "p1", []byte(`{"version":1,"currency":6}`)))

			b, found, err := st.Load(ctx, "p1")
			require.NoError(t, err)
			require.True(t, found)
			assert.JSONEq(t, `{"version":1,"currency":6}`, string(b))

			require.NoError(t, st.Delete(ctx, "p1"))
			_, found, err = st.Load(ctx, "p1")
			require.NoError(t, err)
			assert.False(t, found)

			b, found, err = st.Load(ctx, "p2")
			require.NoError(t, err)
			require.True(t, found)
			assert.JSONEq(t, `{"version":1,"currency":7}`, string(b))

			require.NoError(t, st.Delete(ctx, "never-saved"))
		})
	}
}

func TestStores_BlankPlayerIDUsesDefault(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Save(ctx, "  ", []byte(`{}`)))
			_, found, err := st.Load(ctx, defaultPlayerID)
			require.NoError(t, err)
			assert.True(t, found)
		})
	}
}

func TestMemoryStore_CopiesBlobs(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	blob := []byte(`{"currency":1}`)
	require.NoError(t, st.Save(ctx, "p", blob))
	blob[2] = 'X'

	got, _, err := st.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, `{"currency":1}`, string(got))
}

func TestMemoryStore_CanceledContextFailsWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMemoryStore().Save(ctx, "p", []byte(`{}`))
	assert.ErrorIs(t, err, ErrPersistenceWriteFailed)
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, fs.Save(ctx, "p1", []byte(`{"currency":3}`)))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	b, found, err := reopened.Load(ctx, "p1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"currency":3}`, string(b))
	assert.Equal(t, []string{"p1"}, reopened.PlayerIDs())

	raw, err := os.ReadFile(filepath.Join(dir, "saves.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), RecordKey)
}

func TestFileStore_WriteFailureKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")

	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	err = fs.Save(ctx, "p1", []byte(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistenceWriteFailed)

	_, found, err := fs.Load(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStore_DeleteFailureKeepsSave(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")

	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, fs.Save(ctx, "p1", []byte(`{"version":1}`)))
	require.NoError(t, os.RemoveAll(dir))

	err = fs.Delete(ctx, "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistenceWriteFailed)

	blob, found, err := fs.Load(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"version":1}`, string(blob))
	assert.Equal(t, []string{"p1"}, fs.PlayerIDs())
}

func TestFileStore_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "saves.json"), []byte("{nope"), 0o644))

	_, err := NewFileStore(dir)
	assert.Error(t, err)
}

func TestSQLiteStore_PlayerIDs(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "saves.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Save(ctx, "b", []byte(`{}`)))
	require.NoError(t, db.Save(ctx, "a", []byte(`{}`)))

	ids, err := db.PlayerIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestOpen_Backends(t *testing.T) {
	for _, backend := range []string{BackendMemory, BackendFile, BackendSQLite, ""} {
		st, closeFn, err := Open(backend, t.TempDir())
		require.NoError(t, err, backend)
		require.NotNil(t, st)
		require.NoError(t, closeFn())
	}

	_, closeFn, err := Open("postgres", t.TempDir())
	assert.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestListPlayers(t *testing.T) {
	ctx := context.Background()

	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, fs.Save(ctx, "zed", []byte(`{}`)))
	require.NoError(t, fs.Save(ctx, "amy", []byte(`{}`)))

	ids, err := ListPlayers(ctx, fs)
	require.NoError(t, err)
	assert.Equal(t, []string{"amy", "zed"}, ids)

	_, err = ListPlayers(ctx, NewMemoryStore())
	assert.Error(t, err)
}
