package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/stake-plus/finapp-discord/src/logging"
)

const (
	envPrefix         = "FINAPP_"
	maxConfigFileSize = 1024 * 1024
)

var (
	ErrMissingToken = errors.New("config: discord token missing")
	ErrMissingDSN   = errors.New("config: database dsn missing")
)

// Config is the full process configuration.
type Config struct {
	Discord  DiscordConfig  `koanf:"discord"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Admin    AdminConfig    `koanf:"admin"`
	Log      logging.Config `koanf:"log"`
}

type DiscordConfig struct {
	Token   string `koanf:"token"`
	GuildID string `koanf:"guild_id"`
	// CommandPrefix enables text commands such as "!car count". Empty disables them.
	CommandPrefix    string        `koanf:"command_prefix"`
	RoleID           string        `koanf:"role_id"`
	Cooldown         time.Duration `koanf:"cooldown"`
	RegisterCommands bool          `koanf:"register_commands"`
	CleanupCommands  bool          `koanf:"cleanup_commands"`
}

type DatabaseConfig struct {
	DSN      string `koanf:"dsn"`
	ReadOnly bool   `koanf:"read_only"`
}

type RedisConfig struct {
	URL    string `koanf:"url"`
	Stream string `koanf:"stream"`
}

type AdminConfig struct {
	Enabled      bool     `koanf:"enabled"`
	Addr         string   `koanf:"addr"`
	JWTSecret    string   `koanf:"jwt_secret"`
	AllowOrigins []string `koanf:"allow_origins"`
}

const defaults = `
discord:
  command_prefix: "!"
  cooldown: 0s
  register_commands: true
  cleanup_commands: false
database:
  read_only: true
redis:
  stream: finapp.invocations
admin:
  enabled: false
  addr: ":8080"
  allow_origins: ["http://localhost:3000"]
log:
  level: info
  format: json
`

// Load reads configuration from, in increasing precedence: built-in
// defaults, dir/config.yaml, dir/config.local.yaml, FINAPP_SECTION_FIELD
// environment variables and finally the legacy DISCORD_TOKEN, GUILD_ID,
// MYSQL_DSN and REDIS_URL variables for fields still blank. Missing files
// are skipped.
func Load(dir string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaults)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	for _, name := range []string{"config.yaml", "config.local.yaml"} {
		path := filepath.Join(dir, name)
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if content == nil {
			continue
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	applyLegacyEnv(&cfg)

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, ErrMissingDSN
	}
	return &cfg, nil
}

// envKey maps FINAPP_DISCORD_GUILD_ID to discord.guild_id: the first
// segment after the prefix is the section, the rest is the field.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config: %s too large: %d bytes (max %d)", path, info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize))
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return content, nil
}

func applyLegacyEnv(cfg *Config) {
	fill := func(dst *string, key string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = os.Getenv(key)
		}
	}
	fill(&cfg.Discord.Token, "DISCORD_TOKEN")
	fill(&cfg.Discord.GuildID, "GUILD_ID")
	fill(&cfg.Database.DSN, "MYSQL_DSN")
	fill(&cfg.Redis.URL, "REDIS_URL")
}

// Validate checks the fields without which the bot cannot start. Call it
// after ApplySettings so values stored in the database count.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Discord.Token) == "" {
		return ErrMissingToken
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return ErrMissingDSN
	}
	if c.Discord.Cooldown < 0 {
		return fmt.Errorf("config: discord.cooldown must not be negative")
	}
	if c.Admin.Enabled && strings.TrimSpace(c.Admin.JWTSecret) == "" {
		return fmt.Errorf("config: admin.jwt_secret is required when the admin API is enabled")
	}
	return nil
}
