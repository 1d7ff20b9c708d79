package sequencer

import "fmt"

// Status is the execution status of a single instruction.
type Status int32

const (
	NotExecuted Status = iota
	Running
	Success
	Failure
	Warning
)

var statusNames = map[Status]string{
	NotExecuted: "NotExecuted",
	Running:     "Running",
	Success:     "Success",
	Failure:     "Failure",
	Warning:     "Warning",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// IsFinished reports whether s is a terminal instruction status.
func (s Status) IsFinished() bool {
	return s == Success || s == Failure || s == Warning
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return NotExecuted, fmt.Errorf("unknown instruction status %q", name)
}

// Severity classifies log messages emitted by instructions.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ParseSeverity accepts the names produced by Severity.String.
func ParseSeverity(name string) (Severity, error) {
	switch name {
	case "debug":
		return SeverityDebug, nil
	case "", "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", name)
}
