package emptydir

// State is the per-batch reconciliation state of a directory.
// The numeric values are ranks: a higher state is stronger evidence and
// must never be replaced by a lower one once the directory is processed.
type State int

const (
	// NotProcessed means the directory has not been visited in this batch.
	NotProcessed State = 0
	// NonEmptyNotProcessed means a descendant is known to exist but the
	// directory itself was never checked and its marker never touched.
	NonEmptyNotProcessed State = 1
	// EmptyProcessed means the directory was checked, found empty and its
	// marker ensured.
	EmptyProcessed State = 2
	// NonEmptyProcessed means the directory was checked or forced non-empty
	// and its marker removed.
	NonEmptyProcessed State = 3
)

func (s State) String() string {
	switch s {
	case NotProcessed:
		return "not_processed"
	case NonEmptyNotProcessed:
		return "non_empty_not_processed"
	case EmptyProcessed:
		return "empty_processed"
	case NonEmptyProcessed:
		return "non_empty_processed"
	default:
		return "unknown"
	}
}

// Processed reports whether the state is final for the current batch.
func (s State) Processed() bool {
	return s >= EmptyProcessed
}

// MarshalText lets State render by name in JSON and YAML output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// stateTable is the visited-state map of one batch. Absence means NotProcessed.
type stateTable map[string]State

func (t stateTable) get(path string) (State, bool) {
	s, ok := t[path]
	return s, ok
}

// overwritable reports whether path may still be (re)processed directly.
func (t stateTable) overwritable(path string) bool {
	s, ok := t[path]
	return !ok || s <= NonEmptyNotProcessed
}
