package catalog

const (
	AutoClicker     UpgradeID = "autoClicker"
	MegaClicker     UpgradeID = "megaClicker"
	GigaClicker     UpgradeID = "gigaClicker"
	TeraClicker     UpgradeID = "teraClicker"
	PetaClicker     UpgradeID = "petaClicker"
	ClickMultiplier UpgradeID = "clickMultiplier"
)

const (
	FirstClick       AchievementID = "firstClick"
	TenClicks        AchievementID = "tenClicks"
	HundredClicks    AchievementID = "hundredClicks"
	ThousandClicks   AchievementID = "thousandClicks"
	FirstUpgrade     AchievementID = "firstUpgrade"
	TenUpgrades      AchievementID = "tenUpgrades"
	FirstAutoClicker AchievementID = "firstAutoClicker"
	TenAutoClickers  AchievementID = "tenAutoClickers"
	RichPlayer       AchievementID = "richPlayer"
	Millionaire      AchievementID = "millionaire"
)

const defaultMultiplier = 1.15

func defaultUpgrades() []UpgradeDefinition {
	return []UpgradeDefinition{
		{
			ID: AutoClicker, Name: "Auto Clicker", Description: "Clicks for you automatically", Icon: "🤖",
			BaseCost: 10, Multiplier: defaultMultiplier, Effect: Effect{Kind: PerSecondRate, Value: 0.1},
		},
		{
			ID: MegaClicker, Name: "Mega Clicker", Description: "A powerful auto clicker", Icon: "⚡",
			BaseCost: 50, Multiplier: defaultMultiplier, Effect: Effect{Kind: PerSecondRate, Value: 0.5},
		},
		{
			ID: GigaClicker, Name: "Giga Clicker", Description: "A very powerful auto clicker", Icon: "🚀",
			BaseCost: 200, Multiplier: defaultMultiplier, Effect: Effect{Kind: PerSecondRate, Value: 2},
		},
		{
			ID: TeraClicker, Name: "Tera Clicker", Description: "An incredibly powerful auto clicker", Icon: "💎",
			BaseCost: 1000, Multiplier: defaultMultiplier, Effect: Effect{Kind: PerSecondRate, Value: 10},
		},
		{
			ID: PetaClicker, Name: "Peta Clicker", Description: "A legendary auto clicker", Icon: "👑",
			BaseCost: 5000, Multiplier: defaultMultiplier, Effect: Effect{Kind: PerSecondRate, Value: 50},
		},
		{
			ID: ClickMultiplier, Name: "Click Multiplier", Description: "More coins per click", Icon: "🎯",
			BaseCost: 100, Multiplier: defaultMultiplier, Effect: Effect{Kind: PerClickBonus, Value: 1},
		},
	}
}

func defaultAchievements() []AchievementDefinition {
	return []AchievementDefinition{
		{ID: FirstClick, Name: "First Click", Description: "Make your first click", Icon: "👆", Metric: MetricClicks, Requirement: 1},
		{ID: TenClicks, Name: "10 Clicks", Description: "Make 10 clicks", Icon: "👆👆", Metric: MetricClicks, Requirement: 10},
		{ID: HundredClicks, Name: "100 Clicks", Description: "Make 100 clicks", Icon: "👆👆👆", Metric: MetricClicks, Requirement: 100},
		{ID: ThousandClicks, Name: "1000 Clicks", Description: "Make 1000 clicks", Icon: "👆👆👆👆", Metric: MetricClicks, Requirement: 1000},
		{ID: FirstUpgrade, Name: "First Upgrade", Description: "Buy your first upgrade", Icon: "🛠️", Metric: MetricUpgradesPurchased, Requirement: 1},
		{ID: TenUpgrades, Name: "10 Upgrades", Description: "Buy 10 upgrades", Icon: "🔧", Metric: MetricUpgradesPurchased, Requirement: 10},
		{ID: FirstAutoClicker, Name: "First Auto Clicker", Description: "Buy your first auto clicker", Icon: "🤖", Metric: MetricAutoClickerLevels, Requirement: 1},
		{ID: TenAutoClickers, Name: "10 Auto Clickers", Description: "Buy 10 auto clickers", Icon: "⚡", Metric: MetricAutoClickerLevels, Requirement: 10},
		{ID: RichPlayer, Name: "Rich Player", Description: "Hold 1,000 coins", Icon: "💰", Metric: MetricCurrency, Requirement: 1000},
		{ID: Millionaire, Name: "Millionaire", Description: "Hold 1,000,000 coins", Icon: "💎", Metric: MetricCurrency, Requirement: 1_000_000},
	}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultUpgrades(), defaultAchievements())
	if err != nil {
		panic("catalog: invalid built-in catalog: " + err.Error())
	}
	return c
}
