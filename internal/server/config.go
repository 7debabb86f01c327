package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete daemon configuration.
type Config struct {
	Server   ServerSettings  `hcl:"server,block"`
	Game     GameConfig      `hcl:"game,block"`
	Accounts []AccountConfig `hcl:"account,block"`
}

// ServerSettings contains listener-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameConfig defines the round engine parameters.
type GameConfig struct {
	Admin           string `hcl:"admin"`
	Custody         string `hcl:"custody,optional"`
	MinStake        int64  `hcl:"min_stake,optional"`
	MinDelaySeconds int64  `hcl:"min_delay_seconds,optional"`

	// Initial round, opened at startup when auto_start is set.
	AutoStart      bool  `hcl:"auto_start,optional"`
	Stake          int64 `hcl:"stake,optional"`
	DelaySeconds   int64 `hcl:"delay_seconds,optional"`
	OpenForSeconds int64 `hcl:"open_for_seconds,optional"`
}

// AccountConfig seeds the built-in memory ledger with a funded account.
type AccountConfig struct {
	Name      string `hcl:"name,label"`
	Balance   int64  `hcl:"balance"`
	Allowance int64  `hcl:"allowance,optional"`
}

// DefaultConfig returns the default daemon configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     9090,
			LogLevel: "info",
		},
		Game: GameConfig{
			Admin:           "admin",
			Custody:         "pot",
			MinStake:        1,
			MinDelaySeconds: 1,
			AutoStart:       true,
			Stake:           10,
			DelaySeconds:    300,
			OpenForSeconds:  3600,
		},
	}
}

// LoadConfig loads daemon configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 9090
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Game.Custody == "" {
		config.Game.Custody = "pot"
	}
	if config.Game.MinStake == 0 {
		config.Game.MinStake = 1
	}
	if config.Game.MinDelaySeconds == 0 {
		config.Game.MinDelaySeconds = 1
	}
	if config.Game.Stake == 0 {
		config.Game.Stake = 10
	}
	if config.Game.DelaySeconds == 0 {
		config.Game.DelaySeconds = 300
	}
	if config.Game.OpenForSeconds == 0 {
		config.Game.OpenForSeconds = 3600
	}

	return &config, nil
}

// Validate validates the daemon configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.Admin == "" {
		return fmt.Errorf("game admin must be set")
	}
	if c.Game.Custody == "" {
		return fmt.Errorf("game custody account must be set")
	}
	if c.Game.Custody == c.Game.Admin {
		return fmt.Errorf("custody account must differ from the admin identity")
	}
	if c.Game.Stake < c.Game.MinStake {
		return fmt.Errorf("stake %d below minimum %d", c.Game.Stake, c.Game.MinStake)
	}
	if c.Game.DelaySeconds < c.Game.MinDelaySeconds {
		return fmt.Errorf("delay %ds below minimum %ds", c.Game.DelaySeconds, c.Game.MinDelaySeconds)
	}
	if c.Game.AutoStart && c.Game.OpenForSeconds <= 0 {
		return fmt.Errorf("open_for_seconds must be positive when auto_start is set")
	}

	seen := make(map[string]bool)
	for _, account := range c.Accounts {
		if account.Name == "" {
			return fmt.Errorf("account name must not be empty")
		}
		if seen[account.Name] {
			return fmt.Errorf("duplicate account %q", account.Name)
		}
		seen[account.Name] = true
		if account.Balance < 0 {
			return fmt.Errorf("account %s: balance must not be negative", account.Name)
		}
		if account.Allowance < 0 {
			return fmt.Errorf("account %s: allowance must not be negative", account.Name)
		}
	}

	return nil
}

// GetServerAddress returns the full listen address.
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// MinDelay returns the delay floor as a duration.
func (c *Config) MinDelay() time.Duration {
	return time.Duration(c.Game.MinDelaySeconds) * time.Second
}

// Delay returns the initial round's extension delay as a duration.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Game.DelaySeconds) * time.Second
}

// OpenFor returns how long the initial round stays open without bets.
func (c *Config) OpenFor() time.Duration {
	return time.Duration(c.Game.OpenForSeconds) * time.Second
}
