package tracing

import (
	"sync"
)

// AverageTimeTracer collects the average number of cycles a kind of task
// takes. Overlapping tasks are counted independently.
type AverageTimeTracer struct {
	timeTeller    CycleTeller
	filter        TaskFilter
	lock          sync.Mutex
	averageTime   float64
	inflightTasks map[string]Task
	taskCount     uint64
}

// NewAverageTimeTracer creates a new AverageTimeTracer
func NewAverageTimeTracer(
	timeTeller CycleTeller,
	filter TaskFilter,
) *AverageTimeTracer {
	t := &AverageTimeTracer{
		timeTeller:    timeTeller,
		filter:        filter,
		inflightTasks: make(map[string]Task),
	}

	return t
}

// AverageTime returns the average number of cycles of the completed tasks.
func (t *AverageTimeTracer) AverageTime() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.averageTime
}

// TotalCount returns the number of completed tasks.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskCount
}

// StartTask records the task start cycle
func (t *AverageTimeTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	task.StartCycle = t.timeTeller.Cycle()

	t.lock.Lock()
	t.inflightTasks[task.ID] = task
	t.lock.Unlock()
}

// StepTask does nothing
func (t *AverageTimeTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask records the end of the task
func (t *AverageTimeTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	originalTask, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	taskTime := float64(t.timeTeller.Cycle() - originalTask.StartCycle)
	t.averageTime = (t.averageTime*float64(t.taskCount) + taskTime) /
		float64(t.taskCount+1)
	t.taskCount++

	delete(t.inflightTasks, task.ID)
}
