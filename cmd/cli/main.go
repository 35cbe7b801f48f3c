// Package main implements the Studybank CLI for searching questions and keeping answers.
package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dsjohal14/studybank/internal/app"
	"github.com/dsjohal14/studybank/internal/libs/config"
	"github.com/dsjohal14/studybank/internal/libs/obs"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalFlags override the environment configuration
type globalFlags struct {
	source  string
	backend string
	dataDir string
	noColor bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "studybank",
		Short:         "Search an exam question bank and keep your own answers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.source, "source", "", "question bank path or URL (overrides QUESTIONS_SOURCE)")
	pf.StringVar(&flags.backend, "backend", "", "answer store backend: file, wal, badger, postgres, redis, memory")
	pf.StringVar(&flags.dataDir, "data-dir", "", "data directory for file based backends (overrides DATA_DIR)")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newSearchCmd(flags),
		newShowCmd(flags),
		newAnswerCmd(flags),
		newClearCmd(flags),
		newExportCmd(flags),
		newImportCmd(flags),
		newModulesCmd(flags),
		newStatsCmd(flags),
		newStudyCmd(flags),
	)
	return root
}

// loadConfig reads the environment and applies flag overrides
func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg := config.FromEnv()
	if f.source != "" {
		cfg.QuestionsSource = f.source
	}
	if f.backend != "" {
		cfg.StoreBackend = strings.ToLower(f.backend)
	}
	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open wires the application; callers must Close the container
func (f *globalFlags) open(ctx context.Context) (*app.Container, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}

	// the CLI stays quiet unless asked otherwise
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	obs.InitLoggerWithOptions(obs.LogOptions{Level: level, File: cfg.LogFile})

	return app.New(ctx, cfg, obs.Logger("cli"))
}

func (f *globalFlags) styles() cliStyles {
	if f.noColor {
		plain := lipgloss.NewStyle()
		return cliStyles{heading: plain, muted: plain, label: plain}
	}
	return cliStyles{
		heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		label:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
	}
}

type cliStyles struct {
	heading lipgloss.Style
	muted   lipgloss.Style
	label   lipgloss.Style
}
