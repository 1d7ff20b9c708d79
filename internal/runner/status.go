package runner

import "fmt"

// Status is the state of a job runner.
type Status int

const (
	Idle Status = iota
	Running
	// Paused is reported while a running job waits for release. The
	// controller itself stays Running.
	Paused
	Canceling
	Canceled
	Completed
	Failed
	Stopped
)

var statusNames = map[Status]string{
	Idle:      "Idle",
	Running:   "Running",
	Paused:    "Paused",
	Canceling: "Canceling",
	Canceled:  "Canceled",
	Completed: "Completed",
	Failed:    "Failed",
	Stopped:   "Stopped",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return Idle, fmt.Errorf("unknown runner status %q", name)
}

// IsFinished reports whether s is a terminal state of a run.
func (s Status) IsFinished() bool {
	switch s {
	case Canceled, Completed, Failed, Stopped:
		return true
	}
	return false
}
