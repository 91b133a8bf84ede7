package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"designate/pkg/config"
	"designate/pkg/version"
)

type app struct {
	root       *cobra.Command
	configPath string
	envFile    string
	stdout     io.Writer
	stderr     io.Writer
}

func newApp() *app {
	a := &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	a.root = &cobra.Command{
		Use:   "designate",
		Short: "Hotkey dispatcher for designator tools",
		Long: `designate keeps a registry of designator tools in sync with their
definitions and settings, and routes key presses to the first enabled,
visible tool bound to that key.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadEnv()
		},
	}

	a.root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to the config file (default $"+config.EnvConfigPath+" or "+config.DefaultPath+")")
	a.root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Optional dotenv file loaded before the config")

	a.root.AddCommand(
		a.newServeCmd(),
		a.newPlayCmd(),
		a.newDefsCmd(),
		a.newSettingsCmd(),
		a.newInitConfigCmd(),
	)

	return a
}

// withOutput redirects command output.
func (a *app) withOutput(stdout, stderr io.Writer) *app {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI until the command returns or a signal arrives.
func (a *app) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

func (a *app) executeWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// loadEnv reads the dotenv file. Variables already set in the environment
// win. A missing file is not an error.
func (a *app) loadEnv() error {
	if a.envFile == "" {
		return nil
	}
	if _, err := os.Stat(a.envFile); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(a.envFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", a.envFile, err)
	}
	slog.Debug("Loaded environment file", "path", a.envFile)
	return nil
}

func (a *app) resolveConfigPath() string {
	if a.configPath != "" {
		return a.configPath
	}
	return config.ResolvePath(config.DefaultPath)
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (a *app) newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write the default config and definition files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.resolveConfigPath()
			if err := config.GenerateDefault(path); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := generateDefs(cfg.Defs.Path); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Config file: %s\nDefinitions: %s\n", path, cfg.Defs.Path)
			return nil
		},
	}
}
