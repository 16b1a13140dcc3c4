package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/pokerrooms/internal/game"
	"github.com/lox/pokerrooms/internal/history"
	"github.com/lox/pokerrooms/internal/lobby"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server  *ServerSettings  `hcl:"server,block"`
	Lobby   *LobbySettings   `hcl:"lobby,block"`
	History *HistorySettings `hcl:"history,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// LobbySettings controls every room the server hosts
type LobbySettings struct {
	StartingChips int    `hcl:"starting_chips,optional"`
	MinPlayers    int    `hcl:"min_players,optional"`
	MaxPlayers    int    `hcl:"max_players,optional"`
	SettleDelay   string `hcl:"settle_delay,optional"`
	CodeLength    int    `hcl:"code_length,optional"`
	Seed          int64  `hcl:"seed,optional"`
}

// HistorySettings selects where settled rounds are stored
type HistorySettings struct {
	Driver string `hcl:"driver,optional"`
	DSN    string `hcl:"dsn,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	c := &ServerConfig{}
	c.applyDefaults()
	return c
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *ServerConfig) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Lobby == nil {
		c.Lobby = &LobbySettings{}
	}
	if c.History == nil {
		c.History = &HistorySettings{Driver: history.DriverNone}
	}

	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if c.Lobby.StartingChips == 0 {
		c.Lobby.StartingChips = game.StartingChips
	}
	if c.Lobby.MinPlayers == 0 {
		c.Lobby.MinPlayers = game.MinPlayers
	}
	if c.Lobby.MaxPlayers == 0 {
		c.Lobby.MaxPlayers = game.MaxPlayers
	}
	if c.Lobby.SettleDelay == "" {
		c.Lobby.SettleDelay = "5s"
	}
	if c.Lobby.CodeLength == 0 {
		c.Lobby.CodeLength = lobby.DefaultCodeLength
	}

	if c.History.Driver == history.DriverSQLite && c.History.DSN == "" {
		c.History.DSN = "rounds.db"
	}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	l := c.Lobby
	if l.StartingChips <= 0 {
		return fmt.Errorf("lobby: starting chips must be positive")
	}
	if l.MinPlayers < game.MinPlayers || l.MaxPlayers > game.MaxPlayers || l.MinPlayers > l.MaxPlayers {
		return fmt.Errorf("lobby: players must satisfy %d <= min (%d) <= max (%d) <= %d",
			game.MinPlayers, l.MinPlayers, l.MaxPlayers, game.MaxPlayers)
	}
	delay, err := time.ParseDuration(l.SettleDelay)
	if err != nil {
		return fmt.Errorf("lobby: settle_delay: %w", err)
	}
	if delay < 0 {
		return fmt.Errorf("lobby: settle_delay must not be negative")
	}
	if l.CodeLength < lobby.MinCodeLength || l.CodeLength > lobby.MaxCodeLength {
		return fmt.Errorf("lobby: code length must be between %d and %d", lobby.MinCodeLength, lobby.MaxCodeLength)
	}

	switch c.History.Driver {
	case history.DriverNone, history.DriverSQLite, history.DriverPostgres:
	default:
		return fmt.Errorf("history: unknown driver %q", c.History.Driver)
	}
	if c.History.Driver == history.DriverPostgres && c.History.DSN == "" {
		return fmt.Errorf("history: postgres requires a dsn")
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// LobbyConfig converts the lobby block into lobby.Config. Call Validate first.
func (c *ServerConfig) LobbyConfig() (lobby.Config, error) {
	delay, err := time.ParseDuration(c.Lobby.SettleDelay)
	if err != nil {
		return lobby.Config{}, fmt.Errorf("settle_delay: %w", err)
	}
	return lobby.Config{
		StartingChips: c.Lobby.StartingChips,
		MinPlayers:    c.Lobby.MinPlayers,
		MaxPlayers:    c.Lobby.MaxPlayers,
		SettleDelay:   delay,
		CodeLength:    c.Lobby.CodeLength,
		Seed:          c.Lobby.Seed,
	}, nil
}
