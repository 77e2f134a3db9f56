package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wasmforge/spectest/script"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "spectest",
		Short:         "Run structured wasm conformance scripts against the AOT sandbox pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run <script.json>",
		Short: "Execute one directive script and report per-directive outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := cfg.buildLogger()
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			scriptPath := args[0]
			directives, err := readScript(scriptPath)
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}

			ctx := cmd.Context()
			env := script.NewEnv(cfg.envConfig(logger))
			defer env.Close(ctx) //nolint:errcheck

			runner := NewRunner(env, filepath.Dir(scriptPath))
			results := runner.Execute(ctx, directives)

			colored := term.IsTerminal(int(os.Stdout.Fd()))
			fmt.Fprint(cmd.OutOrStdout(), RenderSummary(results, colored))

			if n := countOutcome(results, OutcomeFail); n > 0 {
				return fmt.Errorf("%d of %d directives failed", n, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	return cmd
}

func readScript(path string) ([]Directive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var directives []Directive
	if err := json.Unmarshal(data, &directives); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return directives, nil
}
