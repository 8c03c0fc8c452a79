// Command hxpage serves the counter demo and encrypts or decrypts
// CryptoMapper URLs.
//
// Settings are read, highest priority first, from flags, HXPAGE_<SECTION>_<OPTION>
// environment variables (HXPAGE_CRYPT_KEY, HXPAGE_SERVER_PORT, ...) and a
// YAML config file: --config, then HXPAGE_CONFIG_FILE, then .hxpage.yml in
// the working directory.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pthm/hxpage/internal/config"
	"github.com/pthm/hxpage/internal/logging"
	"github.com/pthm/hxpage/lib/crypt"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "hxpage",
		Short: "Partial page updates and encrypted URLs for templ",
		Long: `hxpage serves a demo of partial page updates over crypto-mapped URLs
and converts URLs to and from the encrypted form the mapper produces.

  hxpage serve --key secret           Start the counter demo
  hxpage encrypt --key secret /a?b=1  Print the encrypted form of a URL
  hxpage decrypt --key secret /?x=... Print the URL behind a token`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .hxpage.yml, can also use HXPAGE_CONFIG_FILE env var)")
	flags.StringP("log-level", "l", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("log-format", config.DefaultLogFormat, "log format (console, json)")
	flags.String("key", "", "secret used to derive the url key")
	flags.String("key-file", "", "file holding one key per line, watched for rotation")
	flags.String("mode", config.DefaultMode, "url protection mode (encrypted, signed)")
	flags.String("param", config.DefaultParameter, "query parameter carrying the token")
	mustBind(flags, map[string]string{
		"log.level":      "log-level",
		"log.format":     "log-format",
		"crypt.key":      "key",
		"crypt.key_file": "key-file",
		"crypt.mode":     "mode",
		"crypt.param":    "param",
	})

	cmd.AddCommand(newServeCmd(), newEncryptCmd(), newDecryptCmd(), newVersionCmd())
	return cmd
}

// mustBind binds viper keys to flags. Flag names are fixed at build time,
// so a failure is a programming error.
func mustBind(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind %s to --%s: %v", key, name, err))
		}
	}
}

// initConfig points viper at the config file and environment.
func initConfig(cfgFile string) error {
	config.SetDefaults()

	if cfgFile == "" {
		cfgFile = os.Getenv("HXPAGE_CONFIG_FILE")
	}
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".hxpage")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("HXPAGE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// loadConfig loads and validates the settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// cryptFactory builds the factory described by cfg. The returned close
// function stops the key file watcher, if any.
func cryptFactory(cfg config.CryptConfig, logger *zap.Logger) (crypt.Factory, func() error, error) {
	mode, err := cfg.CryptMode()
	if err != nil {
		return nil, nil, err
	}
	if cfg.KeyFile != "" {
		f, err := crypt.NewFileFactory(cfg.KeyFile, mode, logger)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	}
	return crypt.NewStaticFactory(mode, []byte(cfg.Key)), func() error { return nil }, nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	return logging.New(cfg.Level, cfg.Format)
}
