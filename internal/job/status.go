package job

import (
	"fmt"
	"strings"
)

// Status is the kanban column a job sits in. Any status may follow any
// other; there is no transition guard.
type Status int

const (
	StatusBacklog Status = iota + 1
	StatusInProgress
	StatusReview
	StatusDone
)

// Statuses lists every status in board column order.
var Statuses = []Status{StatusBacklog, StatusInProgress, StatusReview, StatusDone}

var statusNames = map[Status]string{
	StatusBacklog:    "Backlog",
	StatusInProgress: "In Progress",
	StatusReview:     "Review",
	StatusDone:       "Done",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus accepts the display names case-insensitively, with or without
// the space in "In Progress" (also "in_progress" and "in-progress").
func ParseStatus(s string) (Status, error) {
	key := normalizeEnum(s)
	for st, name := range statusNames {
		if normalizeEnum(name) == key {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

// Priority orders jobs within a column. The zero value means "not set" and
// behaves as PriorityMedium.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

var priorityNames = map[Priority]string{
	PriorityLow:    "Low",
	PriorityMedium: "Medium",
	PriorityHigh:   "High",
	PriorityUrgent: "Urgent",
}

// OrDefault resolves an unset priority to Medium.
func (p Priority) OrDefault() Priority {
	if p == 0 {
		return PriorityMedium
	}
	return p
}

// Rank is total: Low 0, Medium 1, High 2, Urgent 3. Unset ranks as Medium and
// anything out of range as Low.
func (p Priority) Rank() int {
	switch p.OrDefault() {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

func (p Priority) String() string {
	if name, ok := priorityNames[p.OrDefault()]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// Valid reports whether p is a known priority or unset.
func (p Priority) Valid() bool {
	_, ok := priorityNames[p.OrDefault()]
	return ok
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid priority %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*p = 0
		return nil
	}
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func ParsePriority(s string) (Priority, error) {
	key := normalizeEnum(s)
	for pr, name := range priorityNames {
		if normalizeEnum(name) == key {
			return pr, nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

func normalizeEnum(s string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}
