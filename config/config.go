package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/mindloop-ai/mindloop/core"
)

// RoutineBlockConfig is the file representation of one routine block with
// "HH:MM" times and a named awareness level.
type RoutineBlockConfig struct {
	Name       string   `mapstructure:"name"`
	Domain     string   `mapstructure:"domain"`
	Start      string   `mapstructure:"start"`
	End        string   `mapstructure:"end"`
	Awareness  string   `mapstructure:"awareness"`
	Activities []string `mapstructure:"activities"`
	Flexible   bool     `mapstructure:"flexible"`
}

// Config is the full daemon configuration.
type Config struct {
	MindID   string `mapstructure:"mind_id"`
	Provider string `mapstructure:"provider"` // mock, openai or anthropic

	Budget struct {
		CallsLimit  int `mapstructure:"calls_limit"`
		TokensLimit int `mapstructure:"tokens_limit"`
	} `mapstructure:"budget"`

	Sleep struct {
		Start string `mapstructure:"start"`
		End   string `mapstructure:"end"`
	} `mapstructure:"sleep"`

	Engine struct {
		DrainPerTick     int `mapstructure:"drain_per_tick"`
		LLMTimeoutSecs   int `mapstructure:"llm_timeout_seconds"`
		SnapshotInterval int `mapstructure:"snapshot_interval_seconds"`
	} `mapstructure:"engine"`

	Concerns struct {
		MaxUnackedFollowUps int `mapstructure:"max_unacked_follow_ups"`
		MaxAgeDays          int `mapstructure:"max_age_days"`
	} `mapstructure:"concerns"`

	// StatePath is the SQLite snapshot database; empty keeps state in
	// memory only.
	StatePath string `mapstructure:"state_path"`

	Routine []RoutineBlockConfig `mapstructure:"routine"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mind_id", "mind")
	v.SetDefault("provider", "mock")
	v.SetDefault("budget.calls_limit", 50)
	v.SetDefault("budget.tokens_limit", 50000)
	v.SetDefault("sleep.start", "22:00")
	v.SetDefault("sleep.end", "06:00")
	v.SetDefault("engine.drain_per_tick", 20)
	v.SetDefault("engine.llm_timeout_seconds", 30)
	v.SetDefault("engine.snapshot_interval_seconds", 300)
	v.SetDefault("concerns.max_unacked_follow_ups", 3)
	v.SetDefault("concerns.max_age_days", 14)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads configuration from the given file path (optional), falling back
// to a mindloop.yaml in the working directory, with MINDLOOP_* environment
// overrides. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("MINDLOOP")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("mindloop")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// RoutineBlocks converts the configured schedule into domain blocks. An
// empty schedule returns nil so the built-in default applies.
func (c *Config) RoutineBlocks() ([]core.RoutineBlock, error) {
	if len(c.Routine) == 0 {
		return nil, nil
	}
	blocks := make([]core.RoutineBlock, 0, len(c.Routine))
	for _, rb := range c.Routine {
		start, err := core.ParseDayTime(rb.Start)
		if err != nil {
			return nil, fmt.Errorf("routine block %q: %w", rb.Name, err)
		}
		end, err := core.ParseDayTime(rb.End)
		if err != nil {
			return nil, fmt.Errorf("routine block %q: %w", rb.Name, err)
		}
		level, err := core.ParseAwarenessLevel(rb.Awareness)
		if err != nil {
			return nil, fmt.Errorf("routine block %q: %w", rb.Name, err)
		}
		blocks = append(blocks, core.RoutineBlock{
			Name:            rb.Name,
			Domain:          rb.Domain,
			Start:           start,
			End:             end,
			TargetAwareness: level,
			Activities:      rb.Activities,
			Flexible:        rb.Flexible,
		})
	}
	return blocks, nil
}

// SleepWindow returns the configured sleep window in minutes since midnight.
func (c *Config) SleepWindow() (start, end int, err error) {
	start, err = core.ParseDayTime(c.Sleep.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("sleep window start: %w", err)
	}
	end, err = core.ParseDayTime(c.Sleep.End)
	if err != nil {
		return 0, 0, fmt.Errorf("sleep window end: %w", err)
	}
	return start, end, nil
}

// LLMTimeout returns the configured model-call timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.Engine.LLMTimeoutSecs) * time.Second
}

// SnapshotInterval returns the configured persistence interval.
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.Engine.SnapshotInterval) * time.Second
}
