package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/openmined/dirkeep/internal/config"
	"github.com/openmined/dirkeep/internal/emptydir"
	"github.com/openmined/dirkeep/internal/logging"
	"github.com/openmined/dirkeep/internal/version"
	"github.com/openmined/dirkeep/internal/workspace"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "dirkeep",
	Short:         "Keep .empty_directory markers in sync with directory contents",
	Version:       version.Detailed(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	addPersistentFlags(rootCmd)
}

func addPersistentFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.SortFlags = false
	flags.StringP("project", "p", ".", "project root directory")
	flags.StringP("config", "c", "", "config file (default <project>/.dirkeep/config.yaml)")
	flags.StringSlice("scope", nil, "only maintain markers below these glob patterns (default Assets)")
	flags.Bool("all-places", false, "maintain markers everywhere in the project")
	flags.Bool("journal", true, "record marker changes in the project journal")
	flags.BoolP("verbose", "v", false, "log every marker operation")
	flags.BoolP("quiet", "q", false, "suppress all logging")
	flags.String("log-file", "", "also write logs to this file")
}

func main() {
	// a missing .env is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red.Render("ERROR"), err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red.Render("ERROR"), err)
		os.Exit(1)
	}
}

// loadConfig merges flags, DIRKEEP_* environment and the project config
// file, in that order of precedence. The project root itself never comes
// from the file, so a copied config cannot point elsewhere.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	flags := cmd.Flags()

	project := resolveProject(cmd)
	configPath := config.DefaultPath(project)
	if f := flags.Lookup("config"); f != nil && f.Changed {
		configPath = f.Value.String()
	}
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, ok := err.(viper.ConfigFileNotFoundError)
		if !enoent && !ok {
			return nil, fmt.Errorf("config read '%s': %w", configPath, err)
		}
	}

	defaults := config.Default(project)
	v.SetDefault("scopes", defaults.Scopes)
	v.SetDefault("batch_window", defaults.BatchWindow)
	v.SetDefault("journal", defaults.Journal)

	bindings := map[string]string{
		"scopes":       "scope",
		"all_places":   "all-places",
		"journal":      "journal",
		"verbose":      "verbose",
		"quiet":        "quiet",
		"log_file":     "log-file",
		"batch_window": "batch-window",
	}
	for key, name := range bindings {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()

	cfg := &config.Config{
		Project:     project,
		Scopes:      v.GetStringSlice("scopes"),
		AllPlaces:   v.GetBool("all_places"),
		BatchWindow: v.GetDuration("batch_window"),
		Journal:     v.GetBool("journal"),
		Verbose:     v.GetBool("verbose"),
		Quiet:       v.GetBool("quiet"),
		LogFile:     v.GetString("log_file"),
		Path:        v.ConfigFileUsed(),
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = append([]string(nil), emptydir.DefaultScopes...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveProject picks the project root before the config file is read:
// the flag, then DIRKEEP_PROJECT, then the nearest initialized ancestor of
// the working directory, then the working directory itself.
func resolveProject(cmd *cobra.Command) string {
	if f := cmd.Flags().Lookup("project"); f != nil && f.Changed {
		return f.Value.String()
	}
	if env := os.Getenv(config.EnvPrefix + "_PROJECT"); env != "" {
		return env
	}
	if root, err := workspace.FindRoot("."); err == nil {
		return root
	}
	return "."
}

// session is what every project command needs: config, layout and a logger.
type session struct {
	cfg    *config.Config
	ws     *workspace.Workspace
	logger *slog.Logger
	closer io.Closer
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(logging.Options{
		Verbose: cfg.Verbose,
		Quiet:   cfg.Quiet,
		LogFile: cfg.LogFile,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	slog.SetDefault(logger)

	ws, err := workspace.New(cfg.Project)
	if err != nil {
		closer.Close()
		return nil, err
	}

	logger.Debug("config", "path", cfg.Path, "project", cfg.Project, "scopes", cfg.Scopes, "allPlaces", cfg.AllPlaces)
	return &session{cfg: cfg, ws: ws, logger: logger, closer: closer}, nil
}

func (s *session) Close() {
	if err := s.closer.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
	}
}
