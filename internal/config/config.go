// Package config loads hxpage server settings through Viper from a config
// file, HXPAGE_ environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/pthm/hxpage/lib/crypt"
)

// Defaults applied by SetDefaults.
const (
	DefaultHost      = "localhost"
	DefaultPort      = 8080
	DefaultCharset   = "UTF-8"
	DefaultMode      = "encrypted"
	DefaultParameter = "x"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

var ErrNoKey = errors.New("config: crypt.key or crypt.key_file is required")

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Crypt  CryptConfig  `mapstructure:"crypt"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Charset string `mapstructure:"charset"`
}

type CryptConfig struct {
	Key     string `mapstructure:"key"`
	KeyFile string `mapstructure:"key_file"`
	Mode    string `mapstructure:"mode"`
	Param   string `mapstructure:"param"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers default values on the global viper instance.
func SetDefaults() {
	viper.SetDefault("server.host", DefaultHost)
	viper.SetDefault("server.port", DefaultPort)
	viper.SetDefault("server.charset", DefaultCharset)
	viper.SetDefault("crypt.mode", DefaultMode)
	viper.SetDefault("crypt.param", DefaultParameter)
	viper.SetDefault("log.level", DefaultLogLevel)
	viper.SetDefault("log.format", DefaultLogFormat)
}

// Load unmarshals the global viper state. It does not validate; call
// Validate before starting a server.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Server.Charset == "" {
		config.Server.Charset = DefaultCharset
	}
	if config.Crypt.Param == "" {
		config.Crypt.Param = DefaultParameter
	}
	return &config, nil
}

// Validate checks the settings a server needs.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if _, err := htmlindex.Get(c.Server.Charset); err != nil {
		return fmt.Errorf("config: server.charset %q: %w", c.Server.Charset, err)
	}
	if err := c.Crypt.Validate(); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: log.format %q must be console or json", c.Log.Format)
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Validate checks the key source, mode and parameter name.
func (c *CryptConfig) Validate() error {
	if c.Key == "" && c.KeyFile == "" {
		return ErrNoKey
	}
	if _, err := c.CryptMode(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if strings.ContainsAny(c.Param, "=&?# ") {
		return fmt.Errorf("config: crypt.param %q is not a valid query parameter name", c.Param)
	}
	return nil
}

// CryptMode parses Mode.
func (c *CryptConfig) CryptMode() (crypt.Mode, error) {
	return crypt.ParseMode(c.Mode)
}
