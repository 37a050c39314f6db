package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/openmined/dirkeep/internal/db"
	"github.com/openmined/dirkeep/internal/journal"
	"github.com/openmined/dirkeep/internal/utils"
	"github.com/spf13/cobra"
)

type statusReport struct {
	Project string          `json:"project"`
	Scopes  []string        `json:"scopes"`
	Journal string          `json:"journal"`
	Size    uint64          `json:"size"`
	Driver  string          `json:"driver"`
	Markers []journal.Entry `json:"markers"`
}

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List the markers recorded in the project journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			scope, err := s.cfg.Scope()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !utils.FileExists(s.ws.JournalPath) {
				fmt.Fprintf(out, "No journal at %s. Run %s or %s first.\n",
					s.ws.JournalPath, cyan.Render("dirkeep reconcile"), cyan.Render("dirkeep watch"))
				return nil
			}

			j := journal.New(s.ws.JournalPath)
			if err := j.Open(); err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.List()
			if err != nil {
				return err
			}

			report := statusReport{
				Project: s.ws.Root,
				Scopes:  scope.Patterns(),
				Journal: s.ws.JournalPath,
				Markers: entries,
				Driver:  db.DriverID(),
			}
			if info, err := os.Stat(s.ws.JournalPath); err == nil {
				report.Size = uint64(info.Size())
			}

			if asJSON {
				return writeJSON(out, report)
			}

			fmt.Fprintf(out, "%s%s\n", labelCell.Render("Project"), report.Project)
			if scope.AllPlaces() {
				fmt.Fprintf(out, "%s%s\n", labelCell.Render("Scope"), gray.Render("everywhere"))
			} else {
				fmt.Fprintf(out, "%s%s\n", labelCell.Render("Scope"), strings.Join(report.Scopes, ", "))
			}
			fmt.Fprintf(out, "%s%s (%s, %s)\n", labelCell.Render("Journal"), report.Journal, humanize.Bytes(report.Size), gray.Render(report.Driver))
			fmt.Fprintf(out, "%s%s\n", labelCell.Render("Markers"), bold.Render(humanize.Comma(int64(len(entries)))))
			for _, e := range entries {
				fmt.Fprintf(out, "  %s %s\n", e.Path, gray.Render(humanize.Time(e.UpdatedAt)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")

	return cmd
}
