package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitlit/internal/constants"
	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/storage"
)

const habitColumns = `id, title, description, category, frequency, goal, active,
	start_date, end_date, next_deadline, successes, current_streak, longest_streak`

type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(row scanner) (models.HabitRecord, error) {
	var r models.HabitRecord
	var frequency, startDate string
	var active int
	var endDate, nextDeadline sql.NullString

	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Category, &frequency, &r.Goal, &active,
		&startDate, &endDate, &nextDeadline, &r.Successes, &r.CurrentStreak, &r.LongestStreak)
	if err != nil {
		return models.HabitRecord{}, err
	}

	r.Frequency = models.Frequency(frequency)
	r.Active = active != 0
	r.StartDate, err = time.Parse(constants.TimestampFormat, startDate)
	if err != nil {
		return models.HabitRecord{}, fmt.Errorf("failed to parse start_date: %w", err)
	}
	if r.EndDate, err = parseNullTime(endDate); err != nil {
		return models.HabitRecord{}, fmt.Errorf("failed to parse end_date: %w", err)
	}
	if r.NextDeadline, err = parseNullTime(nextDeadline); err != nil {
		return models.HabitRecord{}, fmt.Errorf("failed to parse next_deadline: %w", err)
	}
	r.ProgressEntries = []models.ProgressEntry{}
	return r, nil
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(constants.TimestampFormat, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(constants.TimestampFormat), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *Store) LoadAll() ([]models.HabitRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT " + habitColumns + " FROM habits ORDER BY id")
	if err != nil {
		return nil, apperrors.Unavailable("load habits", err)
	}
	defer rows.Close()

	records := []models.HabitRecord{}
	index := map[int]int{}
	for rows.Next() {
		r, err := scanHabit(rows)
		if err != nil {
			return nil, apperrors.Unavailable("load habits", err)
		}
		index[r.ID] = len(records)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Unavailable("load habits", err)
	}

	entryRows, err := s.db.Query("SELECT habit_id, completed_at FROM progress_entries ORDER BY habit_id, seq")
	if err != nil {
		return nil, apperrors.Unavailable("load progress entries", err)
	}
	defer entryRows.Close()

	for entryRows.Next() {
		var habitID int
		var completedAt string
		if err := entryRows.Scan(&habitID, &completedAt); err != nil {
			return nil, apperrors.Unavailable("load progress entries", err)
		}
		i, ok := index[habitID]
		if !ok {
			continue
		}
		ts, err := time.Parse(constants.TimestampFormat, completedAt)
		if err != nil {
			return nil, apperrors.Unavailable("load progress entries", fmt.Errorf("failed to parse completed_at: %w", err))
		}
		records[i].ProgressEntries = append(records[i].ProgressEntries, models.ProgressEntry{Timestamp: ts})
	}
	if err := entryRows.Err(); err != nil {
		return nil, apperrors.Unavailable("load progress entries", err)
	}

	return records, nil
}

func (s *Store) GetHabit(id int) (models.HabitRecord, error) {
	if err := s.ready(); err != nil {
		return models.HabitRecord{}, err
	}

	row := s.db.QueryRow("SELECT "+habitColumns+" FROM habits WHERE id = ?", id)
	r, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.HabitRecord{}, fmt.Errorf("%w: %d", storage.ErrNotFound, id)
		}
		return models.HabitRecord{}, apperrors.Unavailable("get habit", err)
	}

	rows, err := s.db.Query("SELECT completed_at FROM progress_entries WHERE habit_id = ? ORDER BY seq", id)
	if err != nil {
		return models.HabitRecord{}, apperrors.Unavailable("get progress entries", err)
	}
	defer rows.Close()

	for rows.Next() {
		var completedAt string
		if err := rows.Scan(&completedAt); err != nil {
			return models.HabitRecord{}, apperrors.Unavailable("get progress entries", err)
		}
		ts, err := time.Parse(constants.TimestampFormat, completedAt)
		if err != nil {
			return models.HabitRecord{}, apperrors.Unavailable("get progress entries", fmt.Errorf("failed to parse completed_at: %w", err))
		}
		r.ProgressEntries = append(r.ProgressEntries, models.ProgressEntry{Timestamp: ts})
	}
	if err := rows.Err(); err != nil {
		return models.HabitRecord{}, apperrors.Unavailable("get progress entries", err)
	}

	return r, nil
}

// SaveAll replaces every stored habit inside one transaction
func (s *Store) SaveAll(records []models.HabitRecord) error {
	if err := s.ready(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return apperrors.Unavailable("begin transaction", err)
	}

	if _, err := tx.Exec("DELETE FROM progress_entries"); err != nil {
		_ = tx.Rollback()
		return apperrors.Unavailable("clear progress entries", err)
	}
	if _, err := tx.Exec("DELETE FROM habits"); err != nil {
		_ = tx.Rollback()
		return apperrors.Unavailable("clear habits", err)
	}
	for _, r := range records {
		if err := insertHabit(tx, r); err != nil {
			_ = tx.Rollback()
			return apperrors.Unavailable("save habits", err)
		}
	}
	if err := bumpSequence(tx); err != nil {
		_ = tx.Rollback()
		return apperrors.Unavailable("update id sequence", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Unavailable("commit habits", err)
	}
	return nil
}

// SaveHabit inserts the record or replaces the stored habit with the same id
func (s *Store) SaveHabit(r models.HabitRecord) error {
	if err := s.ready(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return apperrors.Unavailable("begin transaction", err)
	}

	if _, err := tx.Exec("DELETE FROM progress_entries WHERE habit_id = ?", r.ID); err != nil {
		_ = tx.Rollback()
		return apperrors.Unavailable("save habit", err)
	}
	if _, err := tx.Exec("DELETE FROM habits WHERE id = ?", r.ID); err != nil {
		_ = tx.Rollback()
		return apperrors.Unavailable("save habit", err)
	}
	if err := insertHabit(tx, r); err != nil {
		_ = tx.Rollback()
		return apperrors.Unavailable("save habit", err)
	}
	if err := bumpSequence(tx); err != nil {
		_ = tx.Rollback()
		return apperrors.Unavailable("update id sequence", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Unavailable("commit habit", err)
	}
	return nil
}

func insertHabit(tx *sql.Tx, r models.HabitRecord) error {
	_, err := tx.Exec(`
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.Description, r.Category, string(r.Frequency), r.Goal, boolToInt(r.Active),
		r.StartDate.Format(constants.TimestampFormat), formatNullTime(r.EndDate), formatNullTime(r.NextDeadline),
		r.Successes, r.CurrentStreak, r.LongestStreak)
	if err != nil {
		return fmt.Errorf("failed to insert habit %d: %w", r.ID, err)
	}

	for seq, e := range r.ProgressEntries {
		_, err := tx.Exec(`
			INSERT INTO progress_entries (id, habit_id, seq, completed_at)
			VALUES (?, ?, ?, ?)`,
			uuid.NewString(), r.ID, seq, e.Timestamp.Format(constants.TimestampFormat))
		if err != nil {
			return fmt.Errorf("failed to insert progress entry for habit %d: %w", r.ID, err)
		}
	}
	return nil
}

// bumpSequence keeps the id sequence at or above every stored id
func bumpSequence(tx *sql.Tx) error {
	_, err := tx.Exec(`
		UPDATE id_sequence
		SET value = MAX(value, (SELECT COALESCE(MAX(id), 0) FROM habits))
		WHERE name = 'habits'`)
	return err
}

func (s *Store) NextHabitID() (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, apperrors.Unavailable("begin transaction", err)
	}

	if err := bumpSequence(tx); err != nil {
		_ = tx.Rollback()
		return 0, apperrors.Unavailable("allocate habit id", err)
	}
	if _, err := tx.Exec("UPDATE id_sequence SET value = value + 1 WHERE name = 'habits'"); err != nil {
		_ = tx.Rollback()
		return 0, apperrors.Unavailable("allocate habit id", err)
	}

	var id int
	if err := tx.QueryRow("SELECT value FROM id_sequence WHERE name = 'habits'").Scan(&id); err != nil {
		_ = tx.Rollback()
		return 0, apperrors.Unavailable("allocate habit id", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.Unavailable("allocate habit id", err)
	}
	return id, nil
}

func (s *Store) DeleteHabit(id int) error {
	if err := s.ready(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return apperrors.Unavailable("begin transaction", err)
	}

	if _, err := tx.Exec("DELETE FROM progress_entries WHERE habit_id = ?", id); err != nil {
		_ = tx.Rollback()
		return apperrors.Unavailable("delete habit", err)
	}
	result, err := tx.Exec("DELETE FROM habits WHERE id = ?", id)
	if err != nil {
		_ = tx.Rollback()
		return apperrors.Unavailable("delete habit", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return apperrors.Unavailable("delete habit", err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %d", storage.ErrNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Unavailable("delete habit", err)
	}
	return nil
}
