package tracing

// A TaskStep represents a milestone in the processing of task
type TaskStep struct {
	Cycle uint64 `json:"cycle"`
	What  string `json:"what"`
}

// A Task is a unit of work a component performs over one or more cycles,
// such as sending a packet or completing a bus transaction.
type Task struct {
	ID         string     `json:"id"`
	ParentID   string     `json:"parent_id"`
	Kind       string     `json:"kind"`
	What       string     `json:"what"`
	Location   string     `json:"location"`
	StartCycle uint64     `json:"start_cycle"`
	EndCycle   uint64     `json:"end_cycle"`
	Steps      []TaskStep `json:"steps"`
	Detail     any        `json:"-"`
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool

// KindFilter returns a TaskFilter that accepts tasks of the given kind.
func KindFilter(kind string) TaskFilter {
	return func(t Task) bool {
		return t.Kind == kind
	}
}

// A CycleTeller reports the current clock cycle.
type CycleTeller interface {
	Cycle() uint64
}
