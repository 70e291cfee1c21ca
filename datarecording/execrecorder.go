package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecInfoTable is the table that holds the run metadata.
const ExecInfoTable = "exec_info"

// ExecInfo is one property of a program run.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records how a run was started, with which settings, and when
// it ended.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates an ExecRecorder that writes into recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable(ExecInfoTable, ExecInfo{})

	return &ExecRecorder{recorder: recorder}
}

// Start records the start time, the command line and the working directory.
func (e *ExecRecorder) Start() {
	e.Record("Start Time", time.Now().Format(time.RFC3339Nano))
	e.Record("Command", strings.Join(os.Args, " "))

	if cwd, err := os.Getwd(); err == nil {
		e.Record("Working Directory", cwd)
	}
}

// Record adds a property of the run, such as the seed.
func (e *ExecRecorder) Record(property, value string) {
	e.entries = append(e.entries, ExecInfo{Property: property, Value: value})
}

// End writes all properties along with the end time.
func (e *ExecRecorder) End() {
	e.Record("End Time", time.Now().Format(time.RFC3339Nano))

	for _, entry := range e.entries {
		e.recorder.InsertData(ExecInfoTable, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}
