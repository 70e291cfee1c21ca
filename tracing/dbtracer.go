package tracing

import (
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/axisim/datarecording"
)

// TaskTable is the table the DBTracer writes completed tasks into.
const TaskTable = "trace"

type taskTableEntry struct {
	ID         string
	ParentID   string
	Kind       string
	What       string
	Location   string
	StartCycle uint64
	EndCycle   uint64
	Steps      int
}

// DBTracer is a tracer that stores tasks into a DataRecorder.
type DBTracer struct {
	mu         sync.Mutex
	timeTeller CycleTeller
	backend    datarecording.DataRecorder

	startCycle, endCycle uint64
	tracingTasks         map[string]Task
}

// NewDBTracer creates a new DBTracer.
func NewDBTracer(
	timeTeller CycleTeller,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable(TaskTable, taskTableEntry{})

	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      dataRecorder,
		tracingTasks: make(map[string]Task),
	}

	atexit.Register(t.Terminate)

	return t
}

// SetCycleRange limits the recorded tasks to the ones that overlap with the
// range [start, end]. An end of 0 means no limit.
func (t *DBTracer) SetCycleRange(start, end uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startCycle = start
	t.endCycle = end
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	startingTaskMustBeValid(task)

	task.StartCycle = t.timeTeller.Cycle()
	if t.endCycle > 0 && task.StartCycle > t.endCycle {
		return
	}

	t.tracingTasks[task.ID] = task
}

func startingTaskMustBeValid(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	if task.Kind == "" {
		panic("task kind must be set")
	}

	if task.What == "" {
		panic("task what must be set")
	}

	if task.Location == "" {
		panic("task location must be set")
	}
}

// StepTask counts a step of a task.
func (t *DBTracer) StepTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	original, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	for _, s := range task.Steps {
		s.Cycle = t.timeTeller.Cycle()
		original.Steps = append(original.Steps, s)
	}

	t.tracingTasks[task.ID] = original
}

// EndTask marks the end of a task and writes it to the backend.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	original, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	delete(t.tracingTasks, task.ID)

	original.EndCycle = t.timeTeller.Cycle()
	if original.EndCycle < t.startCycle {
		return
	}

	t.write(original)
}

// Terminate writes the tasks that are still running, ending them at the
// current cycle, and flushes the backend.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.timeTeller.Cycle()
	for _, task := range t.tracingTasks {
		task.EndCycle = now
		t.write(task)
	}

	t.tracingTasks = make(map[string]Task)
	t.backend.Flush()
}

func (t *DBTracer) write(task Task) {
	t.backend.InsertData(TaskTable, taskTableEntry{
		ID:         task.ID,
		ParentID:   task.ParentID,
		Kind:       task.Kind,
		What:       task.What,
		Location:   task.Location,
		StartCycle: task.StartCycle,
		EndCycle:   task.EndCycle,
		Steps:      len(task.Steps),
	})
}
