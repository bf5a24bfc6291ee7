package models

import "fmt"

// TimelineCell is one stage of one investor in the comparison view.
type TimelineCell struct {
	Name          string      `json:"name"`
	Status        StageStatus `json:"status"`
	CompletedDate string      `json:"completedDate,omitempty"`
	IsCurrent     bool        `json:"isCurrent"`
}

type TimelineRow struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Country           string         `json:"country"`
	Completed         int            `json:"completed"`
	Total             int            `json:"total"`
	CurrentStageIndex int            `json:"currentStageIndex"`
	CurrentStageName  string         `json:"currentStageName"`
	ProgressPercent   float64        `json:"progressPercent"`
	Stages            []TimelineCell `json:"stages"`
}

// Timeline compares every investor across the stage list. Header comes from
// the first investor's stages.
type Timeline struct {
	Header []string      `json:"header"`
	Rows   []TimelineRow `json:"rows"`
}

// NewTimelineRow fails for a record without stages, which no template produces.
func NewTimelineRow(inv Investor) (TimelineRow, error) {
	if len(inv.Stages) == 0 {
		return TimelineRow{}, &ValidationError{Field: "stages", Message: fmt.Sprintf("investor %s (%q) has no stages", inv.ID, inv.Name)}
	}
	idx := DeriveCurrentIndex(inv.Stages)
	row := TimelineRow{
		ID:                inv.ID,
		Name:              inv.Name,
		Country:           inv.Country,
		Completed:         CompletedCount(inv.Stages),
		Total:             len(inv.Stages),
		CurrentStageIndex: idx,
		ProgressPercent:   ProgressPercent(inv.Stages),
		Stages:            make([]TimelineCell, len(inv.Stages)),
	}
	row.CurrentStageName = inv.Stages[idx].Name
	for i, st := range inv.Stages {
		cell := TimelineCell{
			Name:      st.Name,
			Status:    st.EffectiveStatus(),
			IsCurrent: i == idx && !st.Completed,
		}
		if st.CompletedDate != nil {
			cell.CompletedDate = *st.CompletedDate
		}
		row.Stages[i] = cell
	}
	return row, nil
}

func BuildTimeline(investors []Investor) (Timeline, error) {
	t := Timeline{Header: []string{}, Rows: make([]TimelineRow, 0, len(investors))}
	if len(investors) > 0 {
		for _, st := range investors[0].Stages {
			t.Header = append(t.Header, st.Name)
		}
	}
	for _, inv := range investors {
		row, err := NewTimelineRow(inv)
		if err != nil {
			return Timeline{}, err
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
