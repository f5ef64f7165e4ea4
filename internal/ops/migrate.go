package ops

import (
	"context"
	"fmt"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
	"github.com/Eoha39/clicker-webapp/internal/game"
	"github.com/Eoha39/clicker-webapp/internal/save"
)

// MigrateResult counts what CopySaves did.
type MigrateResult struct {
	Copied  int      `json:"copied"`
	Corrupt []string `json:"corrupt,omitempty"`
}

// CopySaves copies every save in from into to. Each blob is validated
// against cat first; corrupt saves are reported and skipped.
func CopySaves(ctx context.Context, from, to save.Store, cat *catalog.Catalog) (MigrateResult, error) {
	ids, err := save.ListPlayers(ctx, from)
	if err != nil {
		return MigrateResult{}, err
	}

	var res MigrateResult
	for _, id := range ids {
		blob, found, err := from.Load(ctx, id)
		if err != nil {
			return res, fmt.Errorf("load %s: %w", id, err)
		}
		if !found {
			continue
		}
		if err := game.NewEngine(cat).Initialize(blob); err != nil {
			res.Corrupt = append(res.Corrupt, id)
			continue
		}
		if err := to.Save(ctx, id, blob); err != nil {
			return res, fmt.Errorf("save %s: %w", id, err)
		}
		res.Copied++
	}
	return res, nil
}

// InspectSave loads one player's save and returns its view.
func InspectSave(ctx context.Context, st save.Store, cat *catalog.Catalog, playerID string) (game.View, error) {
	blob, found, err := st.Load(ctx, playerID)
	if err != nil {
		return game.View{}, err
	}
	if !found {
		return game.View{}, fmt.Errorf("no save for player %q", playerID)
	}
	e := game.NewEngine(cat)
	if err := e.Initialize(blob); err != nil {
		return game.View{}, err
	}
	return e.View(), nil
}
