package main

import (
	"fmt"

	"github.com/openmined/dirkeep/internal/emptydir"
	"github.com/openmined/dirkeep/internal/index"
	"github.com/openmined/dirkeep/internal/utils"
	"github.com/spf13/cobra"
)

type checkReport struct {
	Dir    string `json:"dir"`
	Empty  bool   `json:"empty"`
	Marker bool   `json:"marker"`
	InSync bool   `json:"in_sync"`
	Error  string `json:"error,omitempty"`
}

func init() {
	rootCmd.AddCommand(newCheckCmd())
}

func newCheckCmd() *cobra.Command {
	var (
		asJSON bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "check <dir>...",
		Short: "Report whether directories are empty and carry a marker, without changing anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			idx := index.NewLocal(s.ws.Root)
			markers := emptydir.NewFileMarkers(s.ws.Root, s.logger)

			reports := make([]checkReport, 0, len(args))
			for _, arg := range args {
				reports = append(reports, checkDir(idx, markers, utils.NormPath(arg)))
			}

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), reports); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				for _, r := range reports {
					fmt.Fprintln(out, describe(r))
				}
			}

			if strict {
				bad := 0
				for _, r := range reports {
					if !r.InSync {
						bad++
					}
				}
				if bad > 0 {
					return fmt.Errorf("%d of %d directories out of sync", bad, len(reports))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print reports as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when a marker is out of sync")

	return cmd
}

func checkDir(idx *index.Local, markers *emptydir.FileMarkers, dir string) checkReport {
	r := checkReport{Dir: dir}
	if !idx.IsDir(dir) {
		r.Error = "not a tracked directory"
		return r
	}

	empty, err := emptydir.IsEmpty(idx, dir)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Empty = empty
	r.Marker = utils.FileExists(markers.MarkerPath(dir))
	r.InSync = r.Empty == r.Marker
	return r
}

// describe renders one report line.
func describe(r checkReport) string {
	switch {
	case r.Error != "":
		return labelCell.Render(red.Render("error")) + r.Dir + ": " + r.Error
	case !r.InSync:
		return labelCell.Render(stateName(r)) + r.Dir + " " + yellow.Render("(out of sync)")
	default:
		return labelCell.Render(stateName(r)) + r.Dir
	}
}

func stateName(r checkReport) string {
	if r.Empty {
		return green.Render("empty")
	}
	return cyan.Render("non-empty")
}
