package domain

import (
	"strconv"
	"strings"
)

// Status is the workflow state of a job request.
type Status string

// StatusInProcess and related constants define the known workflow states.
const (
	StatusInProcess   Status = "In-process"
	StatusNeedToStart Status = "Need to start"
	StatusComplete    Status = "Complete"
	StatusBlocked     Status = "Blocked"
)

// Statuses lists workflow states in display order.
var Statuses = []Status{StatusInProcess, StatusNeedToStart, StatusComplete, StatusBlocked}

// Priority ranks a job request.
type Priority string

// PriorityHigh and related constants define the known priorities.
const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Priorities lists priorities in display order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParseStatus matches raw text against the known states, ignoring case and surrounding space.
func ParseStatus(raw string) (Status, error) {
	raw = strings.TrimSpace(raw)
	for _, s := range Statuses {
		if strings.EqualFold(string(s), raw) {
			return s, nil
		}
	}
	return "", ErrInvalidStatus
}

// ParsePriority matches raw text against the known priorities.
func ParsePriority(raw string) (Priority, error) {
	raw = strings.TrimSpace(raw)
	for _, p := range Priorities {
		if strings.EqualFold(string(p), raw) {
			return p, nil
		}
	}
	return "", ErrInvalidPriority
}

// Field names one attribute of a Record.
type Field string

// FieldID and related constants name the record attributes.
const (
	FieldID         Field = "id"
	FieldJobRequest Field = "jobRequest"
	FieldSubmitted  Field = "submitted"
	FieldStatus     Field = "status"
	FieldSubmitter  Field = "submitter"
	FieldURL        Field = "url"
	FieldAssigned   Field = "assigned"
	FieldPriority   Field = "priority"
	FieldDueDate    Field = "dueDate"
	FieldEstValue   Field = "estValue"
)

// Fields lists every record attribute, id first.
var Fields = []Field{
	FieldID,
	FieldJobRequest,
	FieldSubmitted,
	FieldStatus,
	FieldSubmitter,
	FieldURL,
	FieldAssigned,
	FieldPriority,
	FieldDueDate,
	FieldEstValue,
}

// ParseField resolves a field key.
func ParseField(raw string) (Field, error) {
	raw = strings.TrimSpace(raw)
	for _, f := range Fields {
		if strings.EqualFold(string(f), raw) {
			return f, nil
		}
	}
	return "", ErrInvalidField
}

// Record is one job request row.
type Record struct {
	ID         int64    `json:"id" yaml:"id"`
	JobRequest string   `json:"jobRequest" yaml:"jobRequest"`
	Submitted  string   `json:"submitted" yaml:"submitted"`
	Status     Status   `json:"status" yaml:"status"`
	Submitter  string   `json:"submitter" yaml:"submitter"`
	URL        string   `json:"url" yaml:"url"`
	Assigned   string   `json:"assigned" yaml:"assigned"`
	Priority   Priority `json:"priority" yaml:"priority"`
	DueDate    string   `json:"dueDate" yaml:"dueDate"`
	EstValue   string   `json:"estValue" yaml:"estValue"`
}

// Value returns the string form of one field.
func (r Record) Value(f Field) string {
	switch f {
	case FieldID:
		return strconv.FormatInt(r.ID, 10)
	case FieldJobRequest:
		return r.JobRequest
	case FieldSubmitted:
		return r.Submitted
	case FieldStatus:
		return string(r.Status)
	case FieldSubmitter:
		return r.Submitter
	case FieldURL:
		return r.URL
	case FieldAssigned:
		return r.Assigned
	case FieldPriority:
		return string(r.Priority)
	case FieldDueDate:
		return r.DueDate
	case FieldEstValue:
		return r.EstValue
	default:
		return ""
	}
}

// WithField returns a copy with exactly one field replaced.
// Enum fields accept any text here; callers that need validation use ParseStatus/ParsePriority.
func (r Record) WithField(f Field, value string) (Record, error) {
	switch f {
	case FieldID:
		return r, ErrImmutableField
	case FieldJobRequest:
		r.JobRequest = value
	case FieldSubmitted:
		r.Submitted = value
	case FieldStatus:
		r.Status = Status(value)
	case FieldSubmitter:
		r.Submitter = value
	case FieldURL:
		r.URL = value
	case FieldAssigned:
		r.Assigned = value
	case FieldPriority:
		r.Priority = Priority(value)
	case FieldDueDate:
		r.DueDate = value
	case FieldEstValue:
		r.EstValue = value
	default:
		return r, ErrInvalidField
	}
	return r, nil
}

// Matches reports whether any field contains the lowercased needle.
func (r Record) Matches(needle string) bool {
	if needle == "" {
		return true
	}
	for _, f := range Fields {
		if strings.Contains(strings.ToLower(r.Value(f)), needle) {
			return true
		}
	}
	return false
}
