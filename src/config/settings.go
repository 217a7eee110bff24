package config

import (
	"strconv"
	"strings"
	"time"
)

// SettingLookup returns a value from the settings table, or "" when unset.
type SettingLookup func(name string) string

// ApplySettings fills values still blank after Load from the database
// settings table. Explicit file and environment values always win.
func ApplySettings(cfg *Config, lookup SettingLookup) {
	if cfg == nil || lookup == nil {
		return
	}

	fill := func(dst *string, name string) {
		if strings.TrimSpace(*dst) != "" {
			return
		}
		if v := strings.TrimSpace(lookup(name)); v != "" {
			*dst = v
		}
	}
	fill(&cfg.Discord.Token, "discord_token")
	fill(&cfg.Discord.GuildID, "guild_id")
	fill(&cfg.Discord.RoleID, "command_role_id")
	fill(&cfg.Redis.URL, "redis_url")
	fill(&cfg.Admin.JWTSecret, "admin_jwt_secret")

	if cfg.Discord.Cooldown == 0 {
		if v := strings.TrimSpace(lookup("command_cooldown_seconds")); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				cfg.Discord.Cooldown = time.Duration(secs) * time.Second
			}
		}
	}
}
