package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pthm/hxpage"
	"github.com/pthm/hxpage/internal/config"
	"github.com/pthm/hxpage/lib/crypt"
	"github.com/pthm/hxpage/lib/mapper"
)

func newEncryptCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "encrypt <url>",
		Short: "Print the encrypted form of a URL",
		Example: `  hxpage encrypt --key secret "/counter/inc?n=1"
  hxpage encrypt --key secret --raw "/counter/inc?n=1"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := mapper.ParseURL(args[0]); err != nil {
				return err
			}
			return withCrypt(func(cfg *config.Config, factory crypt.Factory) error {
				token, err := hxpage.EncryptURL(factory, args[0])
				if err != nil {
					return err
				}
				if raw {
					fmt.Fprintln(cmd.OutOrStdout(), token)
					return nil
				}
				u := mapper.URL{Absolute: true}
				u.AddQueryParameter(cfg.Crypt.Param, token)
				fmt.Fprintln(cmd.OutOrStdout(), u.String())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print only the token")
	return cmd
}

func newDecryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <token|url>",
		Short: "Print the URL behind an encrypted token",
		Long: `Print the URL behind an encrypted token. The argument is either the bare
token or a URL carrying it in the configured query parameter.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCrypt(func(cfg *config.Config, factory crypt.Factory) error {
				token := args[0]
				if u, err := mapper.ParseURL(token); err == nil {
					if v, ok := u.QueryValue(cfg.Crypt.Param); ok {
						token = v
					}
				}
				plain, err := hxpage.DecryptURL(factory, token)
				if err != nil {
					if hxpage.IsDecryptionError(err) {
						return fmt.Errorf("%w (was it produced with the configured keys and mode?)", err)
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), plain)
				return nil
			})
		},
	}
}

// withCrypt loads the config and runs fn with a crypt factory built from it.
func withCrypt(fn func(*config.Config, crypt.Factory) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Crypt.Validate(); err != nil {
		return err
	}
	factory, closeFn, err := cryptFactory(cfg.Crypt, zap.NewNop())
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(cfg, factory)
}
