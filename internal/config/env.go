package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv overrides c from CLICKER_* environment variables. Unset or
// unparsable values leave the current setting alone.
func ApplyEnv(c *Config) {
	if val := getEnvString("CLICKER_ADDR"); val != "" {
		c.Server.Addr = val
	}
	if val := getEnvString("CLICKER_DATA_DIR"); val != "" {
		c.Storage.DataDir = val
	}
	if val := getEnvString("CLICKER_STORE"); val != "" {
		c.Storage.Backend = strings.ToLower(val)
	}
	if val := getEnvInt("CLICKER_TICK_MS"); val > 0 {
		c.Game.TickMS = val
	}
	if val := getEnvInt("CLICKER_AUTOSAVE_MS"); val > 0 {
		c.Game.AutosaveMS = val
	}
	if val := getEnvFloat("CLICKER_CLICKS_PER_SEC"); val > 0 {
		c.Game.ClicksPerSecond = val
	}
	if val := getEnvInt("CLICKER_SESSION_IDLE_S"); val > 0 {
		c.Game.SessionIdleS = val
	}
	if val := getEnvString("CLICKER_CATALOG"); val != "" {
		c.Game.CatalogExtension = val
	}
	if val, ok := getEnvBool("CLICKER_DEV_STATIC"); ok {
		c.Server.DevStatic = val
	}
}

func getEnvString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getEnvInt(key string) int {
	val := getEnvString(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}

func getEnvFloat(key string) float64 {
	val := getEnvString(key)
	if val == "" {
		return 0
	}
	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0
	}
	return num
}

func getEnvBool(key string) (bool, bool) {
	switch strings.ToLower(getEnvString(key)) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	default:
		return false, false
	}
}
