package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	day1 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 = time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
)

func strp(s string) *string { return &s }

func TestEffectiveStatus(t *testing.T) {
	assert.Equal(t, StatusNotStarted, Stage{}.EffectiveStatus())
	assert.Equal(t, StatusCompleted, Stage{Completed: true}.EffectiveStatus())
	assert.Equal(t, StatusInProgress, Stage{Status: StatusInProgress}.EffectiveStatus())
	assert.Equal(t, StatusNotStarted, Stage{Completed: true, Status: StatusNotStarted}.EffectiveStatus())
}

func TestParseStageStatus(t *testing.T) {
	for _, s := range []string{"not_started", "in_progress", "completed"} {
		st, err := ParseStageStatus(s)
		require.NoError(t, err)
		assert.Equal(t, StageStatus(s), st)
	}
	_, err := ParseStageStatus("done")
	assert.True(t, IsValidationError(err))
	_, err = ParseStageStatus("")
	assert.True(t, IsValidationError(err))
}

func TestToggleCompletion(t *testing.T) {
	on := ToggleCompletion(Stage{ID: "a"}, day1)
	assert.True(t, on.Completed)
	assert.Equal(t, StatusCompleted, on.Status)
	require.NotNil(t, on.CompletedDate)
	assert.Equal(t, "2025-03-01", *on.CompletedDate)

	off := ToggleCompletion(on, day2)
	assert.False(t, off.Completed)
	assert.Nil(t, off.CompletedDate)
	assert.Equal(t, StatusNotStarted, off.Status)

	again := ToggleCompletion(off, day2)
	require.NotNil(t, again.CompletedDate)
	assert.Equal(t, "2025-03-20", *again.CompletedDate, "toggling back on stamps a fresh date")
}

func TestToggleCompletionDoesNotAliasInput(t *testing.T) {
	in := Stage{ID: "a"}
	_ = ToggleCompletion(in, day1)
	assert.False(t, in.Completed)
	assert.Nil(t, in.CompletedDate)
}

func TestSetStatusCompletedIsIdempotent(t *testing.T) {
	first := SetStatus(Stage{ID: "a"}, StatusCompleted, day1)
	second := SetStatus(first, StatusCompleted, day2)

	require.NotNil(t, first.CompletedDate)
	require.NotNil(t, second.CompletedDate)
	assert.Equal(t, *first.CompletedDate, *second.CompletedDate)
	assert.Equal(t, "2025-03-01", *second.CompletedDate)
	assert.True(t, second.Completed)
}

func TestToggleThenSetStatusKeepsDate(t *testing.T) {
	done := ToggleCompletion(Stage{ID: "a"}, day1)
	again := SetStatus(done, StatusCompleted, day2)
	assert.Equal(t, "2025-03-01", *again.CompletedDate)
}

func TestSetStatusAwayFromCompletedClearsDate(t *testing.T) {
	done := SetStatus(Stage{ID: "a"}, StatusCompleted, day1)

	for _, st := range []StageStatus{StatusInProgress, StatusNotStarted} {
		out := SetStatus(done, st, day2)
		assert.False(t, out.Completed)
		assert.Nil(t, out.CompletedDate)
		assert.Equal(t, st, out.Status)
		assert.Equal(t, st, out.EffectiveStatus())
	}
}

func TestDeriveCurrentIndex(t *testing.T) {
	mk := func(done ...bool) []Stage {
		out := make([]Stage, len(done))
		for i, d := range done {
			out[i] = Stage{Completed: d}
		}
		return out
	}
	tests := []struct {
		name   string
		stages []Stage
		want   int
	}{
		{"empty", nil, 0},
		{"none completed", mk(false, false, false), 0},
		{"first only", mk(true, false, false), 0},
		{"prefix", mk(true, true, false), 1},
		{"gap", mk(true, false, true, false), 2},
		{"only last", mk(false, false, false, true), 3},
		{"all", mk(true, true, true), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveCurrentIndex(tt.stages))
		})
	}
}

func TestProgressPercent(t *testing.T) {
	stages := StagesFromTemplate(DefaultStageTemplate())
	assert.Equal(t, 0.0, ProgressPercent(stages))

	prev := 0.0
	for i := range stages {
		stages[i] = ToggleCompletion(stages[i], day1)
		p := ProgressPercent(stages)
		assert.Greater(t, p, prev)
		prev = p
	}
	assert.Equal(t, 100.0, ProgressPercent(stages))
}

func TestProgressPercentPanicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() { ProgressPercent(nil) })
	assert.Panics(t, func() { ProgressPercent([]Stage{}) })
}

func TestStagesFromTemplate(t *testing.T) {
	tpl := DefaultStageTemplate()
	stages := StagesFromTemplate(tpl)
	require.Len(t, stages, 11)
	for i, s := range stages {
		assert.Equal(t, tpl[i].ID, s.ID)
		assert.Equal(t, tpl[i].Name, s.Name)
		assert.False(t, s.Completed)
		assert.Nil(t, s.CompletedDate)
		assert.Equal(t, StatusUnset, s.Status)
	}
}

func TestCloneStagesCopiesDates(t *testing.T) {
	in := []Stage{{ID: "a", Completed: true, CompletedDate: strp("2025-01-01")}}
	out := cloneStages(in)
	*out[0].CompletedDate = "2030-01-01"
	assert.Equal(t, "2025-01-01", *in[0].CompletedDate)
	assert.Nil(t, cloneStages(nil))
}
