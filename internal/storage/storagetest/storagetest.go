// Package storagetest holds behaviour checks shared by every storage.Provider.
package storagetest

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/storage"
)

// SampleRecord builds a valid record with n daily completions starting at start
func SampleRecord(id int, title string, start time.Time, completions int) models.HabitRecord {
	r := models.HabitRecord{
		ID:              id,
		Title:           title,
		Description:     "sample " + title,
		Category:        "test",
		Frequency:       models.Daily,
		Goal:            10,
		Active:          true,
		StartDate:       start,
		Successes:       completions,
		CurrentStreak:   completions,
		LongestStreak:   completions,
		ProgressEntries: []models.ProgressEntry{},
	}
	for i := 0; i < completions; i++ {
		r.ProgressEntries = append(r.ProgressEntries, models.ProgressEntry{
			Timestamp: start.AddDate(0, 0, i).Add(time.Hour + 123456789*time.Nanosecond),
		})
	}
	deadline := start.AddDate(0, 0, 1)
	if completions > 0 {
		deadline = r.ProgressEntries[completions-1].Timestamp.AddDate(0, 0, 1)
	}
	r.NextDeadline = &deadline
	return r
}

// RunProviderTests exercises a freshly created, uninitialized provider from open.
// open is called once per subtest.
func RunProviderTests(t *testing.T, open func(t *testing.T) storage.Provider) {
	t.Helper()
	start := time.Date(2030, 7, 20, 8, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	t.Run("empty store", func(t *testing.T) {
		p := open(t)
		records, err := p.LoadAll()
		if err != nil {
			t.Fatalf("LoadAll() error = %v", err)
		}
		if records == nil || len(records) != 0 {
			t.Errorf("LoadAll() = %v, want empty slice", records)
		}
	})

	t.Run("save all and load all", func(t *testing.T) {
		p := open(t)
		end := start.AddDate(0, 1, 0)
		inactive := SampleRecord(2, "stretch", start, 0)
		inactive.Active = false
		inactive.EndDate = &end
		inactive.NextDeadline = nil

		want := []models.HabitRecord{SampleRecord(3, "read", start, 3), inactive, SampleRecord(1, "run", start, 1)}
		if err := p.SaveAll(want); err != nil {
			t.Fatalf("SaveAll() error = %v", err)
		}

		got, err := p.LoadAll()
		if err != nil {
			t.Fatalf("LoadAll() error = %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("LoadAll() returned %d records, want 3", len(got))
		}
		for i, id := range []int{1, 2, 3} {
			if got[i].ID != id {
				t.Errorf("record %d has id %d, want %d", i, got[i].ID, id)
			}
		}
		AssertRecordEqual(t, want[0], got[2])
		AssertRecordEqual(t, want[1], got[1])

		if _, err := models.HabitsFromRecords(got); err != nil {
			t.Errorf("stored records no longer valid: %v", err)
		}

		// replace, not merge
		if err := p.SaveAll(want[:1]); err != nil {
			t.Fatalf("SaveAll() error = %v", err)
		}
		got, err = p.LoadAll()
		if err != nil || len(got) != 1 || got[0].ID != 3 {
			t.Errorf("LoadAll() after replace = %v, %v", got, err)
		}
	})

	t.Run("next id never reused", func(t *testing.T) {
		p := open(t)
		first, err := p.NextHabitID()
		if err != nil {
			t.Fatalf("NextHabitID() error = %v", err)
		}
		if first < 1 {
			t.Errorf("NextHabitID() = %d, want positive", first)
		}
		if err := p.SaveHabit(SampleRecord(first, "a", start, 0)); err != nil {
			t.Fatalf("SaveHabit() error = %v", err)
		}
		if err := p.DeleteHabit(first); err != nil {
			t.Fatalf("DeleteHabit() error = %v", err)
		}
		second, err := p.NextHabitID()
		if err != nil {
			t.Fatalf("NextHabitID() error = %v", err)
		}
		if second <= first {
			t.Errorf("NextHabitID() = %d after %d", second, first)
		}

		// ids written directly push the sequence forward
		if err := p.SaveAll([]models.HabitRecord{SampleRecord(40, "imported", start, 0)}); err != nil {
			t.Fatalf("SaveAll() error = %v", err)
		}
		third, err := p.NextHabitID()
		if err != nil {
			t.Fatalf("NextHabitID() error = %v", err)
		}
		if third <= 40 {
			t.Errorf("NextHabitID() = %d, want > 40", third)
		}
	})

	t.Run("single habit operations", func(t *testing.T) {
		p := open(t)
		rec := SampleRecord(5, "meditate", start, 2)
		if err := p.SaveHabit(rec); err != nil {
			t.Fatalf("SaveHabit() error = %v", err)
		}

		got, err := p.GetHabit(5)
		if err != nil {
			t.Fatalf("GetHabit() error = %v", err)
		}
		AssertRecordEqual(t, rec, got)

		updated := SampleRecord(5, "meditate longer", start, 3)
		if err := p.SaveHabit(updated); err != nil {
			t.Fatalf("SaveHabit() update error = %v", err)
		}
		got, err = p.GetHabit(5)
		if err != nil {
			t.Fatalf("GetHabit() error = %v", err)
		}
		AssertRecordEqual(t, updated, got)

		all, err := p.LoadAll()
		if err != nil || len(all) != 1 {
			t.Errorf("LoadAll() = %d records, %v; want 1", len(all), err)
		}

		if err := p.DeleteHabit(5); err != nil {
			t.Fatalf("DeleteHabit() error = %v", err)
		}
		if _, err := p.GetHabit(5); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetHabit() after delete error = %v, want ErrNotFound", err)
		}
		if err := p.DeleteHabit(5); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("DeleteHabit() twice error = %v, want ErrNotFound", err)
		}
	})

	t.Run("data survives reopen", func(t *testing.T) {
		p := open(t)
		rec := SampleRecord(9, "journal", start, 4)
		if err := p.SaveHabit(rec); err != nil {
			t.Fatalf("SaveHabit() error = %v", err)
		}
		if err := p.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if err := p.Load(); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		got, err := p.GetHabit(9)
		if err != nil {
			t.Fatalf("GetHabit() error = %v", err)
		}
		AssertRecordEqual(t, rec, got)
	})
}

// AssertRecordEqual compares two records field by field, timestamps by instant
func AssertRecordEqual(t *testing.T, want, got models.HabitRecord) {
	t.Helper()
	if want.ID != got.ID || want.Title != got.Title || want.Description != got.Description ||
		want.Category != got.Category || want.Frequency != got.Frequency || want.Goal != got.Goal ||
		want.Active != got.Active {
		t.Errorf("record fields differ:\nwant %+v\ngot  %+v", want, got)
	}
	if want.Successes != got.Successes || want.CurrentStreak != got.CurrentStreak || want.LongestStreak != got.LongestStreak {
		t.Errorf("record counters differ: want %d/%d/%d, got %d/%d/%d",
			want.Successes, want.CurrentStreak, want.LongestStreak,
			got.Successes, got.CurrentStreak, got.LongestStreak)
	}
	if !want.StartDate.Equal(got.StartDate) {
		t.Errorf("start date: want %v, got %v", want.StartDate, got.StartDate)
	}
	if !equalOptionalTime(want.EndDate, got.EndDate) {
		t.Errorf("end date: want %v, got %v", want.EndDate, got.EndDate)
	}
	if !equalOptionalTime(want.NextDeadline, got.NextDeadline) {
		t.Errorf("next deadline: want %v, got %v", want.NextDeadline, got.NextDeadline)
	}
	if len(want.ProgressEntries) != len(got.ProgressEntries) {
		t.Fatalf("progress entries: want %d, got %d", len(want.ProgressEntries), len(got.ProgressEntries))
	}
	for i := range want.ProgressEntries {
		if !want.ProgressEntries[i].Timestamp.Equal(got.ProgressEntries[i].Timestamp) {
			t.Errorf("entry %d: want %v, got %v", i, want.ProgressEntries[i].Timestamp, got.ProgressEntries[i].Timestamp)
		}
	}
}

func equalOptionalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// AssertUnavailable fails unless err wraps ErrStorageUnavailable
func AssertUnavailable(t *testing.T, err error) {
	t.Helper()
	if !apperrors.Is(err, apperrors.ErrStorageUnavailable) {
		t.Errorf("error = %v, want ErrStorageUnavailable", err)
	}
}
