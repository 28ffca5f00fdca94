// Package cmd contains the kit CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/kitia/cli/internal/app"
	"github.com/kitia/cli/internal/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type appKey struct{}

var rootCmd = &cobra.Command{
	Use:   "kit",
	Short: "Manage Kit IA Emprendedor favorites, catalog and modules",
	Long: `kit manages the GPT catalog of Kit IA Emprendedor from the terminal.

Favorites are stored locally (file, OS keyring or memory) and shared with
the extension modules through the same storage key.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
}

// flagEnv maps persistent flags to the environment variables they override.
var flagEnv = map[string]string{
	"storage":      config.EnvStorage,
	"storage-path": config.EnvStoragePath,
	"log-level":    config.EnvLogLevel,
	"log-format":   config.EnvLogFormat,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("env-file", ".env", "Path to a .env file with KIT_* settings")
	pf.String("storage", "", "Storage backend: file, keyring or memory")
	pf.String("storage-path", "", "Path of the storage file when --storage=file")
	pf.String("log-level", "", "Log level: trace, debug, info, warn, error or disabled")
	pf.String("log-format", "", "Log format: text or json")
}

// Execute runs the root command.
func Execute(ctx context.Context, version string) error {
	return fang.Execute(ctx, rootCmd, fang.WithVersion(version))
}

func setupApp(cmd *cobra.Command, args []string) error {
	var setErr error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if env, ok := flagEnv[f.Name]; ok && setErr == nil {
			setErr = os.Setenv(env, f.Value.String())
		}
	})
	if setErr != nil {
		return setErr
	}

	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	logger := cfg.Logger()
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	logger.Debug("kit configured", logger.Args("storage", cfg.Storage, "path", cfg.StoragePath))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appKey{}, a))
	return nil
}

func closeApp(cmd *cobra.Command, args []string) error {
	a, ok := cmd.Context().Value(appKey{}).(*app.App)
	if !ok {
		return nil
	}
	return a.Close(cmd.Context())
}

// getApp returns the App built by the root command's pre-run hook.
func getApp(cmd *cobra.Command) (*app.App, error) {
	a, ok := cmd.Context().Value(appKey{}).(*app.App)
	if !ok {
		return nil, fmt.Errorf("kit is not configured")
	}
	return a, nil
}

// PrintTableNoPad renders rows as a table without cell padding.
func PrintTableNoPad(rows pterm.TableData, hasHeader bool) {
	table := pterm.DefaultTable.WithData(rows).WithLeftAlignment()
	if hasHeader {
		table = table.WithHasHeader()
	}
	_ = table.Render()
}
