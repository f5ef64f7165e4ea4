package page

import (
	"bytes"
	"context"
	"testing"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
	"github.com/Eoha39/clicker-webapp/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomePage_RendersView(t *testing.T) {
	e := game.NewEngine(catalog.Default())
	require.NoError(t, e.Initialize([]byte(`{"version":1,"currency":1500,"achievements":{"firstClick":{"unlocked":true}}}`)))

	var buf bytes.Buffer
	require.NoError(t, HomePage(e.View()).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, `<span id="coins" title="1,500">1.5K</span>`)
	assert.Contains(t, html, `data-upgrade="autoClicker"`)
	assert.Contains(t, html, `+0.1 per second`)
	assert.Contains(t, html, `+1 per click`)
	assert.Contains(t, html, `class="achievement unlocked" data-achievement="firstClick"`)
	assert.Contains(t, html, `class="upgrade locked" type="button" data-upgrade="petaClicker"`)
	assert.Contains(t, html, `class="upgrade" type="button" data-upgrade="autoClicker"`)
	assert.Contains(t, html, `/static/js/app.js`)
}

func TestHomePage_EscapesCatalogText(t *testing.T) {
	ext := catalog.Extension{Upgrades: []catalog.UpgradeDefinition{{
		ID: "xss", Name: `<script>alert(1)</script>`, BaseCost: 5, Multiplier: 1.5,
		Effect: catalog.Effect{Kind: catalog.PerSecondRate, Value: 1},
	}}}
	cat, err := catalog.Default().Extend(ext)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, HomePage(game.NewEngine(cat).View()).Render(context.Background(), &buf))

	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}
