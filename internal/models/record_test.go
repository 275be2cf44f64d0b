package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	apperrors "github.com/julianstephens/habitlit/internal/errors"
)

func TestRecordRoundTrip(t *testing.T) {
	h := newTestHabit(t, 7, Weekly, "2030-07-15T08:00")
	loc := time.FixedZone("CEST", 2*3600)
	for _, ts := range []time.Time{
		time.Date(2030, 7, 16, 9, 15, 30, 123456789, loc),
		time.Date(2030, 7, 23, 21, 0, 1, 0, loc),
	} {
		if err := h.RecordCompletion(ts); err != nil {
			t.Fatalf("RecordCompletion() error = %v", err)
		}
	}
	if err := h.Deactivate(time.Date(2030, 7, 30, 12, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(h.Record())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, key := range []string{`"habit_id":7`, `"frequency":"weekly"`, `"progress_entries":[{"timestamp":"2030-07-16T09:15:30.123456789+02:00"}`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("record JSON missing %s: %s", key, data)
		}
	}

	var decoded HabitRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	restored, err := FromRecord(decoded)
	if err != nil {
		t.Fatalf("FromRecord() error = %v", err)
	}

	if restored.ID() != h.ID() || restored.Title() != h.Title() || restored.Frequency() != h.Frequency() {
		t.Errorf("identity mismatch: %+v vs %+v", restored.Record(), h.Record())
	}
	if restored.Successes() != h.Successes() || restored.CurrentStreak() != h.CurrentStreak() || restored.LongestStreak() != h.LongestStreak() {
		t.Errorf("counter mismatch: %+v vs %+v", restored.Record(), h.Record())
	}
	want, got := h.ProgressEntries(), restored.ProgressEntries()
	if len(want) != len(got) {
		t.Fatalf("entry count mismatch: %d vs %d", len(want), len(got))
	}
	for i := range want {
		if !want[i].Equal(got[i]) {
			t.Errorf("entry %d: %v != %v", i, got[i], want[i])
		}
	}
	if restored.Active() {
		t.Error("expected inactive after round trip")
	}
	if end, ok := restored.EndDate(); !ok || !end.Equal(time.Date(2030, 7, 30, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("end date mismatch: %v", end)
	}
}

func TestFromRecordRejectsBrokenInvariants(t *testing.T) {
	start := time.Date(2030, 7, 20, 8, 0, 0, 0, time.UTC)
	entry := func(day, hour int) ProgressEntry {
		return ProgressEntry{Timestamp: time.Date(2030, 7, day, hour, 0, 0, 0, time.UTC)}
	}
	base := func() HabitRecord {
		return HabitRecord{
			ID: 1, Title: "h", Category: "test", Frequency: Daily, Goal: 1, Active: true,
			StartDate: start, Successes: 2, CurrentStreak: 2, LongestStreak: 2,
			ProgressEntries: []ProgressEntry{entry(20, 9), entry(21, 9)},
		}
	}

	if _, err := FromRecord(base()); err != nil {
		t.Fatalf("base record should be valid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(r *HabitRecord)
		want   error
	}{
		{"zero id", func(r *HabitRecord) { r.ID = 0 }, apperrors.ErrValidation},
		{"missing title", func(r *HabitRecord) { r.Title = "" }, apperrors.ErrValidation},
		{"bad frequency", func(r *HabitRecord) { r.Frequency = "hourly" }, apperrors.ErrInvalidFrequency},
		{"bad goal", func(r *HabitRecord) { r.Goal = 0 }, apperrors.ErrInvalidGoal},
		{"longest below current", func(r *HabitRecord) { r.LongestStreak = 1 }, apperrors.ErrValidation},
		{"successes mismatch", func(r *HabitRecord) { r.Successes = 5 }, apperrors.ErrValidation},
		{"unordered entries", func(r *HabitRecord) {
			r.ProgressEntries = []ProgressEntry{entry(21, 9), entry(20, 9)}
		}, apperrors.ErrValidation},
		{"two entries in one day", func(r *HabitRecord) {
			r.ProgressEntries = []ProgressEntry{entry(21, 8), entry(21, 9)}
		}, apperrors.ErrValidation},
		{"zero timestamp", func(r *HabitRecord) {
			r.ProgressEntries = []ProgressEntry{{}, entry(21, 9)}
		}, apperrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(&r)
			if _, err := FromRecord(r); !apperrors.Is(err, tt.want) {
				t.Errorf("FromRecord() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCollection(t *testing.T) {
	habits := Habits{
		newTestHabit(t, 1, Daily, "2030-07-20T08:00"),
		newTestHabit(t, 4, Daily, "2030-07-20T08:00"),
		newTestHabit(t, 2, Weekly, "2030-07-20T08:00"),
	}

	if h, ok := habits.Find(4); !ok || h.ID() != 4 {
		t.Errorf("Find(4) = %v, %v", h, ok)
	}
	if _, ok := habits.Find(9); ok {
		t.Error("Find(9) should fail")
	}

	rest, removed := habits.Remove(4)
	if !removed || len(rest) != 2 || rest[0].ID() != 1 || rest[1].ID() != 2 {
		t.Errorf("Remove(4) = %v, %v", rest, removed)
	}
	if len(habits) != 3 || habits[1].ID() != 4 {
		t.Error("Remove must not modify the receiver")
	}
	if _, removed := habits.Remove(9); removed {
		t.Error("Remove(9) should report nothing removed")
	}

	if err := habits[0].RecordCompletion(at(t, "2030-07-20T09:00")); err != nil {
		t.Fatal(err)
	}
	reset := habits.EvaluateMissedPeriods(at(t, "2030-07-23T09:00"))
	if len(reset) != 1 || reset[0] != 1 {
		t.Errorf("EvaluateMissedPeriods() = %v, want [1]", reset)
	}

	restored, err := HabitsFromRecords(habits.Records())
	if err != nil {
		t.Fatalf("HabitsFromRecords() error = %v", err)
	}
	if len(restored) != 3 || restored[2].Frequency() != Weekly {
		t.Errorf("unexpected restored collection %v", restored.Records())
	}

	empty, err := HabitsFromRecords(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("HabitsFromRecords(nil) = %v, %v", empty, err)
	}
}
