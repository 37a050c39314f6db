package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/openmined/dirkeep/internal/emptydir"
	"github.com/openmined/dirkeep/internal/index"
	"github.com/openmined/dirkeep/internal/journal"
	"github.com/openmined/dirkeep/internal/utils"
	"github.com/openmined/dirkeep/internal/workspace"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errEmptyBatch = errors.New("nothing to reconcile: pass paths, --batch or --all")

func init() {
	rootCmd.AddCommand(newReconcileCmd())
}

func newReconcileCmd() *cobra.Command {
	var (
		batch     emptydir.Batch
		batchFile string
		all       bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile markers for one batch of changed paths",
		Example: `  dirkeep reconcile --imported Assets/Textures --deleted Assets/Old/a.png
  dirkeep reconcile --batch changes.yaml --json
  dirkeep reconcile --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if batchFile != "" {
				fromFile, err := readBatchFile(batchFile)
				if err != nil {
					return err
				}
				batch = mergeBatches(fromFile, batch)
			}
			batch = normBatch(batch)

			idx := index.NewLocal(s.ws.Root)
			if all {
				dirs, err := idx.Dirs()
				if err != nil {
					return err
				}
				batch.Imported = append(batch.Imported, dirs...)
			}
			if batch.Empty() {
				return errEmptyBatch
			}

			res, err := reconcile(s, idx, batch)
			if err != nil {
				return err
			}

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else {
				printResult(cmd.OutOrStdout(), res)
			}

			if res.Errors > 0 {
				return fmt.Errorf("%d marker operations failed", res.Errors)
			}
			return nil
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringSliceVar(&batch.Imported, "imported", nil, "paths created or modified")
	cmd.Flags().StringSliceVar(&batch.Deleted, "deleted", nil, "paths removed")
	cmd.Flags().StringSliceVar(&batch.Moved, "moved", nil, "new locations of moved paths")
	cmd.Flags().StringSliceVar(&batch.MovedFrom, "moved-from", nil, "old locations of moved paths")
	cmd.Flags().StringVar(&batchFile, "batch", "", "YAML or JSON file with imported/deleted/moved/moved_from lists")
	cmd.Flags().BoolVar(&all, "all", false, "reconcile every tracked directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}

// reconcile runs one batch under the project lock so it never races a watcher.
func reconcile(s *session, idx *index.Local, batch emptydir.Batch) (*emptydir.Result, error) {
	if err := s.ws.Setup(); err != nil {
		return nil, err
	}
	if err := s.ws.Lock(); err != nil {
		if errors.Is(err, workspace.ErrProjectLocked) {
			return nil, fmt.Errorf("%w (is `dirkeep watch` running?)", err)
		}
		return nil, err
	}
	defer s.ws.Unlock()

	scope, err := s.cfg.Scope()
	if err != nil {
		return nil, err
	}
	opts := []emptydir.Option{
		emptydir.WithScope(scope),
		emptydir.WithLogger(s.logger),
	}

	if s.cfg.Journal {
		j := journal.New(s.ws.JournalPath)
		if err := j.Open(); err != nil {
			return nil, err
		}
		defer j.Close()
		opts = append(opts, emptydir.WithRecorder(j))
	}

	r := emptydir.New(idx, emptydir.NewFileMarkers(s.ws.Root, s.logger), opts...)
	return r.Process(batch), nil
}

func readBatchFile(path string) (emptydir.Batch, error) {
	var batch emptydir.Batch
	data, err := os.ReadFile(path)
	if err != nil {
		return batch, err
	}
	// JSON is valid YAML
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return batch, fmt.Errorf("parse batch %s: %w", path, err)
	}
	return batch, nil
}

func mergeBatches(a, b emptydir.Batch) emptydir.Batch {
	return emptydir.Batch{
		Imported:  append(a.Imported, b.Imported...),
		Deleted:   append(a.Deleted, b.Deleted...),
		Moved:     append(a.Moved, b.Moved...),
		MovedFrom: append(a.MovedFrom, b.MovedFrom...),
	}
}

func normBatch(b emptydir.Batch) emptydir.Batch {
	norm := func(paths []string) []string {
		out := make([]string, 0, len(paths))
		for _, p := range paths {
			if p = utils.NormPath(p); p != "." {
				out = append(out, p)
			}
		}
		return out
	}
	return emptydir.Batch{
		Imported:  norm(b.Imported),
		Deleted:   norm(b.Deleted),
		Moved:     norm(b.Moved),
		MovedFrom: norm(b.MovedFrom),
	}
}

func printResult(w io.Writer, res *emptydir.Result) {
	row := func(label, value string) {
		fmt.Fprintf(w, "%s%s\n", labelCell.Render(label), value)
	}

	row("Batch", cyan.Render(res.BatchID))
	row("Checked", fmt.Sprint(res.Checked))
	row("Created", green.Render(fmt.Sprint(res.Created)))
	row("Removed", yellow.Render(fmt.Sprint(res.Removed)))
	row("Skipped", gray.Render(fmt.Sprint(res.Skipped)))
	row("Non-empty", fmt.Sprint(len(res.NonEmpty())))
	if res.Errors > 0 {
		row("Errors", red.Render(fmt.Sprint(res.Errors)))
	}
	row("Took", res.Took.String())

	empty := res.Empty()
	slices.Sort(empty)
	for _, dir := range empty {
		row("Empty", dir)
	}
}
