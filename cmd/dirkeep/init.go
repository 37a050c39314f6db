package main

import (
	"fmt"

	"github.com/openmined/dirkeep/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newInitCmd())
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config for the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			if s.ws.Initialized() && !force {
				cfg, err := config.Load(s.ws.ConfigPath)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "Project already initialized")
				printConfig(cmd, cfg)
				return nil
			}

			if err := s.ws.Setup(); err != nil {
				return err
			}

			cfg := s.cfg
			cfg.Project = s.ws.Root
			if err := cfg.Save(s.ws.ConfigPath); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			fmt.Fprintln(out, "Project initialized")
			printConfig(cmd, cfg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")

	return cmd
}

func printConfig(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	scopes := fmt.Sprint(cfg.Scopes)
	if cfg.AllPlaces {
		scopes = "everywhere"
	}
	fmt.Fprintf(out, "%s%s\n", labelCell.Render("Config"), green.Render(cfg.Path))
	fmt.Fprintf(out, "%s%s\n", labelCell.Render("Project"), cyan.Render(cfg.Project))
	fmt.Fprintf(out, "%s%s\n", labelCell.Render("Scopes"), cyan.Render(scopes))
	fmt.Fprintf(out, "%s%t\n", labelCell.Render("Journal"), cfg.Journal)
}
