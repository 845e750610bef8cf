package result

import (
	"fmt"
	"time"

	"github.com/signalnine/fedexps/internal/experiment"
)

// Status is the lifecycle state of a launched job, encoded as the extension
// of its log file.
type Status int

const (
	Completed Status = iota
	Failed
	Running
)

var statuses = []Status{Completed, Failed, Running}

// Ext returns the file extension, without the dot, that marks the status.
func (s Status) Ext() string {
	switch s {
	case Completed:
		return "log"
	case Failed:
		return "err"
	case Running:
		return "run"
	}
	panic(fmt.Sprintf("result: unknown status %d", int(s)))
}

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Running:
		return "running"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func statusFromExt(ext string) (Status, bool) {
	for _, s := range statuses {
		if s.Ext() == ext {
			return s, true
		}
	}
	return 0, false
}

// Entry is one status file found in the log directory.
type Entry struct {
	Path        string
	Family      experiment.Family
	Description experiment.Description
	Status      Status
	ModTime     time.Time
}

// Stale reports whether a running entry has not been touched for longer than
// after. The scheduler owns the job, so a silent .run file usually means it
// was killed without the recipe getting a chance to rename it.
func (e Entry) Stale(now time.Time, after time.Duration) bool {
	if e.Status != Running || after <= 0 {
		return false
	}
	return now.Sub(e.ModTime) > after
}

// LaunchStats summarizes the status files of one family.
type LaunchStats struct {
	Completed int
	Failed    int
	Running   int
	Entries   []Entry
}

// Launched is the number of jobs that left any trace in the log directory.
func (s LaunchStats) Launched() int {
	return s.Completed + s.Failed + s.Running
}

// Count returns the counter for a status.
func (s LaunchStats) Count(st Status) int {
	switch st {
	case Completed:
		return s.Completed
	case Failed:
		return s.Failed
	case Running:
		return s.Running
	}
	return 0
}

// Filter returns the entries with the given status.
func (s LaunchStats) Filter(st Status) []Entry {
	var out []Entry
	for _, e := range s.Entries {
		if e.Status == st {
			out = append(out, e)
		}
	}
	return out
}
