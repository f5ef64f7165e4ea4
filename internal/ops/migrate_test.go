package ops

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
	"github.com/Eoha39/clicker-webapp/internal/save"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopySaves_FileToSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	from, err := save.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, from.Save(ctx, "p1", []byte(`{"version":1,"currency":12}`)))
	require.NoError(t, from.Save(ctx, "p2", []byte(`{"version":1,"currency":-5}`)))

	to, err := save.OpenSQLiteStore(filepath.Join(dir, "saves.db"))
	require.NoError(t, err)
	defer to.Close()

	res, err := CopySaves(ctx, from, to, catalog.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Copied)
	assert.Equal(t, []string{"p2"}, res.Corrupt)

	ids, err := to.PlayerIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)

	v, err := InspectSave(ctx, to, catalog.Default(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 12.0, v.Currency)
}

func TestInspectSave_Errors(t *testing.T) {
	ctx := context.Background()
	st := save.NewMemoryStore()

	_, err := InspectSave(ctx, st, catalog.Default(), "nobody")
	assert.Error(t, err)

	require.NoError(t, st.Save(ctx, "p1", []byte(`not json`)))
	_, err = InspectSave(ctx, st, catalog.Default(), "p1")
	assert.Error(t, err)
}
