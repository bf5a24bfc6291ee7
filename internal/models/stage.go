package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used for completedDate and dateAdded.
const DateLayout = "2006-01-02"

type StageStatus string

// StatusUnset marks records written before the three-state status existed.
const (
	StatusUnset      StageStatus = ""
	StatusNotStarted StageStatus = "not_started"
	StatusInProgress StageStatus = "in_progress"
	StatusCompleted  StageStatus = "completed"
)

func ParseStageStatus(s string) (StageStatus, error) {
	switch st := StageStatus(s); st {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return st, nil
	}
	return StatusUnset, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown stage status %q", s)}
}

// StageDefinition is one template entry: a stage without completion fields.
type StageDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Stage struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Completed     bool        `json:"completed"`
	CompletedDate *string     `json:"completedDate,omitempty"`
	Status        StageStatus `json:"status,omitempty"`
}

// EffectiveStatus is the only place the legacy two-state fallback is applied.
func (s Stage) EffectiveStatus() StageStatus {
	if s.Status != StatusUnset {
		return s.Status
	}
	if s.Completed {
		return StatusCompleted
	}
	return StatusNotStarted
}

// ToggleCompletion flips the completed flag. Turning it on always stamps today.
func ToggleCompletion(s Stage, now time.Time) Stage {
	s.Completed = !s.Completed
	if s.Completed {
		d := now.Format(DateLayout)
		s.CompletedDate = &d
		s.Status = StatusCompleted
	} else {
		s.CompletedDate = nil
		s.Status = StatusNotStarted
	}
	return s
}

// SetStatus moves a stage to status. Re-completing keeps the first completion date.
func SetStatus(s Stage, status StageStatus, now time.Time) Stage {
	s.Status = status
	if status == StatusCompleted {
		s.Completed = true
		if s.CompletedDate == nil {
			d := now.Format(DateLayout)
			s.CompletedDate = &d
		}
		return s
	}
	s.Completed = false
	s.CompletedDate = nil
	return s
}

// DeriveCurrentIndex returns the highest completed index, or 0.
func DeriveCurrentIndex(stages []Stage) int {
	for i := len(stages) - 1; i >= 0; i-- {
		if stages[i].Completed {
			return i
		}
	}
	return 0
}

func CompletedCount(stages []Stage) int {
	n := 0
	for _, s := range stages {
		if s.Completed {
			n++
		}
	}
	return n
}

// ProgressPercent panics on an empty list: every template has at least one stage.
func ProgressPercent(stages []Stage) float64 {
	if len(stages) == 0 {
		panic("models: ProgressPercent called with an empty stage list")
	}
	return 100 * float64(CompletedCount(stages)) / float64(len(stages))
}

// StagesFromTemplate seeds a fresh, not-started stage list.
func StagesFromTemplate(tpl []StageDefinition) []Stage {
	out := make([]Stage, len(tpl))
	for i, d := range tpl {
		out[i] = Stage{ID: d.ID, Name: d.Name, Description: d.Description}
	}
	return out
}

func cloneStages(in []Stage) []Stage {
	if in == nil {
		return nil
	}
	out := make([]Stage, len(in))
	for i, s := range in {
		if s.CompletedDate != nil {
			d := *s.CompletedDate
			s.CompletedDate = &d
		}
		out[i] = s
	}
	return out
}
