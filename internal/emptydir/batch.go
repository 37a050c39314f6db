package emptydir

import (
	"strings"
	"time"
)

// Batch is one delivery of change notifications. Imported and Moved name
// entities present on disk; Deleted and MovedFrom name their last known
// location.
type Batch struct {
	Imported  []string `json:"imported,omitempty" yaml:"imported,omitempty"`
	Deleted   []string `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	Moved     []string `json:"moved,omitempty" yaml:"moved,omitempty"`
	MovedFrom []string `json:"moved_from,omitempty" yaml:"moved_from,omitempty"`
}

// Len returns the total number of paths in the batch.
func (b Batch) Len() int {
	return len(b.Imported) + len(b.Deleted) + len(b.Moved) + len(b.MovedFrom)
}

func (b Batch) Empty() bool {
	return b.Len() == 0
}

// Result summarizes a processed batch.
type Result struct {
	BatchID string           `json:"batch_id"`
	States  map[string]State `json:"states"`
	Checked int              `json:"checked"`
	Created int              `json:"created"`
	Removed int              `json:"removed"`
	Skipped int              `json:"skipped"`
	Errors  int              `json:"errors"`
	Took    time.Duration    `json:"took"`
}

// Empty lists the directories found empty in this batch.
func (r *Result) Empty() []string {
	return r.withState(EmptyProcessed)
}

// NonEmpty lists the directories confirmed non-empty in this batch.
func (r *Result) NonEmpty() []string {
	return r.withState(NonEmptyProcessed)
}

func (r *Result) withState(want State) []string {
	var dirs []string
	for dir, s := range r.States {
		if s == want {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// parentDir returns the text before the last '/'. Root level entries have no parent.
func parentDir(path string) (string, bool) {
	idx := strings.LastIndexByte(path, '/')
	if idx <= 0 {
		return "", false
	}
	return path[:idx], true
}
