// Package page renders the server-side HTML for the game.
package page

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
	"github.com/Eoha39/clicker-webapp/internal/game"

	"github.com/a-h/templ"
)

// HomePage renders the game with v as its first frame. static/js/app.js
// takes over from there through the live websocket.
func HomePage(v game.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>GigaCode Clicker</title>
<link rel="stylesheet" href="/static/css/style.css">
</head>
<body>
<main class="game">
<header class="scoreboard">
`)
		fmt.Fprintf(&b, `<div class="coins"><span id="coins" title="%s">%s</span> coins</div>
<div class="rates"><span id="cpc">%s</span> per click &middot; <span id="cps">%s</span> per second</div>
</header>
`, esc(v.Text.CurrencyExact), esc(v.Text.Currency), esc(v.Text.PerClick), esc(v.Text.PerSecond))

		b.WriteString(`<button id="clickable-logo" class="logo" type="button" aria-label="Click for coins">&#x1F4BB;</button>
<section>
<h2>Upgrades</h2>
<div id="upgrades-grid" class="grid">
`)
		for _, u := range v.Upgrades {
			writeUpgrade(&b, u)
		}
		b.WriteString(`</div>
</section>
<section>
<h2>Achievements</h2>
<div id="achievements-grid" class="grid">
`)
		for _, a := range v.Achievements {
			writeAchievement(&b, a)
		}
		fmt.Fprintf(&b, `</div>
</section>
<footer class="stats">
<span>Clicks: <b id="stat-clicks">%d</b></span>
<span>Upgrades: <b id="stat-upgrades">%d</b></span>
<span>Auto clickers: <b id="stat-auto">%d</b></span>
<button id="reset" type="button" class="reset">Reset</button>
</footer>
</main>
<script src="/static/js/app.js" defer></script>
</body>
</html>
`, v.Stats.TotalClicks, v.Stats.TotalUpgradesPurchased, v.Stats.TotalAutoClickerLevels)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeUpgrade(b *strings.Builder, u game.UpgradeView) {
	class := "upgrade"
	if !u.Affordable {
		class += " locked"
	}
	unit := "per second"
	if u.EffectKind == catalog.PerClickBonus {
		unit = "per click"
	}
	fmt.Fprintf(b, `<button class="%s" type="button" data-upgrade="%s">
<span class="icon">%s</span>
<span class="name">%s</span>
<span class="desc">%s</span>
<span class="effect">+%s %s</span>
<span class="level">Level <b>%d</b></span>
<span class="cost">%s</span>
</button>
`, class, esc(string(u.ID)), esc(u.Icon), esc(u.Name), esc(u.Description),
		esc(trimFloat(u.EffectValue)), unit, u.Level, esc(u.CostText))
}

func writeAchievement(b *strings.Builder, a game.AchievementView) {
	class := "achievement"
	if a.Unlocked {
		class += " unlocked"
	}
	fmt.Fprintf(b, `<div class="%s" data-achievement="%s">
<span class="icon">%s</span>
<span class="name">%s</span>
<span class="desc">%s</span>
<progress max="1" value="%.3f"></progress>
</div>
`, class, esc(string(a.ID)), esc(a.Icon), esc(a.Name), esc(a.Description), a.Progress)
}

func trimFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

func esc(s string) string { return templ.EscapeString(s) }
