package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the bot needs to run on a concrete server:
// the Discord token, the ids of the channels and roles involved in the
// whitelist flow, and the timing knobs of the process.
type Config struct {
	Discord   DiscordConfig   `yaml:"discord"`
	Whitelist WhitelistConfig `yaml:"whitelist"`
	Roblox    RobloxConfig    `yaml:"roblox"`
	Announce  AnnounceConfig  `yaml:"announcements"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
}

type DiscordConfig struct {
	Token   string `yaml:"token"`
	GuildId string `yaml:"guild_id"`
	Prefix  string `yaml:"prefix"`
}

type WhitelistConfig struct {
	CategoryId       string   `yaml:"category_id"`
	StaffRoleId      string   `yaml:"staff_role_id"`
	ResultsChannelId string   `yaml:"results_channel_id"`
	LogChannelId     string   `yaml:"log_channel_id"`
	ApproveRoleIds   []string `yaml:"approve_role_ids"`
	RevokeRoleIds    []string `yaml:"revoke_role_ids"`
	VerifyTimeout    Duration `yaml:"verify_timeout"`
	AnswerTimeout    Duration `yaml:"answer_timeout"`
	TeardownDelay    Duration `yaml:"teardown_delay"`
}

// Duration accepts Go duration strings like "5m" or "300s" in YAML
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type RobloxConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

type AnnounceConfig struct {
	ChannelId string `yaml:"channel_id"`
	CronSpec  string `yaml:"cron_spec"`
	Enabled   bool   `yaml:"enabled"`
}

type StoreConfig struct {
	ApplicationsFile string `yaml:"applications_file"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML config file and applies environment overrides.
// The Discord token is usually not kept in the file but in DISCORD_TOKEN.
func Load(path string) (*Config, error) {

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	cfg.overrideWithEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) overrideWithEnv() {
	if val := os.Getenv("DISCORD_TOKEN"); val != "" {
		c.Discord.Token = val
	}
	if val := os.Getenv("DISCORD_GUILD_ID"); val != "" {
		c.Discord.GuildId = val
	}
	if val := os.Getenv("APPLICATIONS_FILE"); val != "" {
		c.Store.ApplicationsFile = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
}

func (c *Config) applyDefaults() {
	if c.Discord.Prefix == "" {
		c.Discord.Prefix = "pc!"
	}
	if c.Whitelist.VerifyTimeout == 0 {
		c.Whitelist.VerifyTimeout = Duration(5 * time.Minute)
	}
	if c.Whitelist.AnswerTimeout == 0 {
		c.Whitelist.AnswerTimeout = Duration(300 * time.Second)
	}
	if c.Whitelist.TeardownDelay == 0 {
		c.Whitelist.TeardownDelay = Duration(10 * time.Second)
	}
	if c.Roblox.RequestsPerMinute == 0 {
		c.Roblox.RequestsPerMinute = 60
	}
	if c.Announce.CronSpec == "" {
		// every 4 hours, like the original announcement loop
		c.Announce.CronSpec = "0 0 */4 * * *"
	}
	if c.Store.ApplicationsFile == "" {
		c.Store.ApplicationsFile = "data/whitelist_applications.json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord token is missing (set discord.token or DISCORD_TOKEN)")
	}
	if c.Discord.GuildId == "" {
		return fmt.Errorf("discord.guild_id is missing")
	}
	if c.Whitelist.StaffRoleId == "" {
		return fmt.Errorf("whitelist.staff_role_id is missing")
	}
	if c.Whitelist.CategoryId == "" {
		return fmt.Errorf("whitelist.category_id is missing")
	}
	return nil
}
