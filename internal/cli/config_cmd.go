package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/promptforge/internal/config"
)

func newConfigCmd(r *root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration with secrets hidden",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg := *r.app.Config
				cfg.LLM.APIKey = redact(cfg.LLM.APIKey)
				tokens := make([]config.TokenConfig, len(cfg.Server.Tokens))
				for i, t := range cfg.Server.Tokens {
					t.Token = redact(t.Token)
					tokens[i] = t
				}
				cfg.Server.Tokens = tokens
				enc := yaml.NewEncoder(r.app.Out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(&cfg)
			},
		},
		newConfigInitCmd(r),
	)
	return cmd
}

func newConfigInitCmd(r *root) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := r.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(r.app.Out, "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
