// Package cli implements the pantryctl command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"pantrycore/internal/config"
	"pantrycore/internal/core"
	"pantrycore/pkg/domain"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose    bool
	ConfigPath string
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for pantryctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pantryctl",
		Short: "Manage the pantrycore recipe store",
		Long:  "pantryctl creates, inspects, and exports recipes stored by pantrycore.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to pantrycore config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewPhotosCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func newLogger(opts *RootOptions) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openService loads configuration, opens the configured store, and wires the
// recipe service. The returned func releases the store.
func openService(opts *RootOptions) (*core.Service, config.Config, func(), error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	store, err := core.OpenPersistentStore(core.StorageConfig{
		Driver:      core.StorageDriver(cfg.Storage.Driver),
		SQLitePath:  cfg.Storage.SQLitePath,
		PostgresDSN: cfg.Storage.PostgresDSN,
	})
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	closeStore := func() {
		if closer, ok := store.(io.Closer); ok {
			_ = closer.Close()
		}
	}
	svc := core.NewService(store, core.WithLogger(newLogger(opts)))
	return svc, cfg, closeStore, nil
}

func printRecipe(w io.Writer, format string, recipe domain.Recipe) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recipe)
	}
	_, err := fmt.Fprintf(w, "#%d %s (%d kcal)\n  ingredients: %s\n  instructions: %s\n",
		recipe.ID, recipe.Label, recipe.Calories, recipe.Ingredients, recipe.Instructions)
	return err
}

func printRecipes(w io.Writer, format string, recipes []domain.Recipe) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recipes)
	}
	for _, recipe := range recipes {
		if _, err := fmt.Fprintf(w, "#%d\t%s\t%d kcal\n", recipe.ID, recipe.Label, recipe.Calories); err != nil {
			return err
		}
	}
	return nil
}
