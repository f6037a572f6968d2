// Package cli holds the fittrack maintenance commands.
package cli

import (
	"fmt"
	"io"
	"strings"

	"alcyxob/fittrack/internal/app"
	"alcyxob/fittrack/internal/clock"
	"alcyxob/fittrack/internal/config"
	"alcyxob/fittrack/internal/logging"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Runtime is what a command runs against.
type Runtime struct {
	Config config.Config
	Repos  *app.Repositories
	Clock  clock.Clock
}

// Loader builds the Runtime of a command invocation. The caller closes Repos.
type Loader func(configPath string) (*Runtime, error)

// LoadRuntime reads the config in configPath and opens its repositories.
func LoadRuntime(configPath string) (*Runtime, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.Stdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	repos, err := app.OpenRepositories(cfg.Database)
	if err != nil {
		return nil, err
	}
	return &Runtime{Config: cfg, Repos: repos, Clock: clock.System()}, nil
}

// NewRootCmd builds the command tree. load is called once per command run.
func NewRootCmd(load Loader) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "fittrack",
		Short:         "Maintenance commands for the fittrack backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory holding config.yaml")

	open := func() (*Runtime, error) { return load(configPath) }
	rootCmd.AddCommand(newImportTemplatesCmd(open), newDailyTotalsCmd(open))
	return rootCmd
}

func parseUserID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return id, fmt.Errorf("invalid --user %q: must be a 24 character hex id", raw)
	}
	return id, nil
}

func printBoxedHeader(w io.Writer, title string) {
	width := 40
	cyanBold := color.New(color.FgCyan, color.Bold).SprintFunc()
	border := strings.Repeat("═", width)
	fmt.Fprintln(w, cyanBold("╔"+border+"╗"))
	fmt.Fprintln(w, cyanBold("║"+centerText(title, width)+"║"))
	fmt.Fprintln(w, cyanBold("╚"+border+"╝"))
}

func centerText(s string, width int) string {
	if len(s) >= width {
		return s
	}
	padding := (width - len(s)) / 2
	return strings.Repeat(" ", padding) + s + strings.Repeat(" ", width-len(s)-padding)
}
