package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
)

const jsonDocumentVersion = 1

// Document is the on-disk layout of a JSON store
type Document struct {
	Version int                  `json:"version"`
	NextID  int                  `json:"next_id"`
	Habits  []models.HabitRecord `json:"habits"`
}

// JSONStore keeps the whole collection in a single JSON file. Every write
// replaces the file atomically.
type JSONStore struct {
	mu   sync.Mutex
	path string
	doc  *Document
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return apperrors.Unavailable("create config directory", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = &Document{Version: jsonDocumentVersion, Habits: []models.HabitRecord{}}
	return s.save()
}

// Load reads the file. A missing file is an empty collection.
func (s *JSONStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.doc = &Document{Version: jsonDocumentVersion, Habits: []models.HabitRecord{}}
			return nil
		}
		return apperrors.Unavailable("read storage", err)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return apperrors.Unavailable("parse storage", err)
	}
	s.doc = doc
	return nil
}

// decodeDocument accepts the versioned document or a bare array of records
func decodeDocument(data []byte) (*Document, error) {
	doc := &Document{}
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &doc.Habits); err != nil {
			return nil, err
		}
		logger.Info("Read legacy habit list", "habits", len(doc.Habits))
	default:
		if err := json.Unmarshal(trimmed, doc); err != nil {
			return nil, err
		}
	}

	if doc.Version == 0 {
		doc.Version = jsonDocumentVersion
	}
	if doc.Habits == nil {
		doc.Habits = []models.HabitRecord{}
	}
	if max := maxRecordID(doc.Habits); doc.NextID < max {
		doc.NextID = max
	}
	return doc, nil
}

func (s *JSONStore) Close() error {
	return nil
}

// save writes the document to a temp file next to the target and renames it over
// the target.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return apperrors.Unavailable("create config directory", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return apperrors.Unavailable("write storage", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return apperrors.Unavailable("write storage", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return apperrors.Unavailable("sync storage", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return apperrors.Unavailable("write storage", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		cleanup()
		return apperrors.Unavailable("write storage", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return apperrors.Unavailable("replace storage", err)
	}
	return nil
}

// loaded re-reads the file so each operation starts from what other processes
// last wrote. The in-memory document stands until the file first exists.
func (s *JSONStore) loaded() error {
	if s.doc == nil {
		return apperrors.Unavailable("access storage", fmt.Errorf("storage not loaded"))
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperrors.Unavailable("read storage", err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return apperrors.Unavailable("parse storage", err)
	}
	s.doc = doc
	return nil
}

func (s *JSONStore) LoadAll() ([]models.HabitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return nil, err
	}

	out := make([]models.HabitRecord, len(s.doc.Habits))
	copy(out, s.doc.Habits)
	sortRecords(out)
	return out, nil
}

func (s *JSONStore) SaveAll(records []models.HabitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}

	habits := make([]models.HabitRecord, len(records))
	copy(habits, records)
	sortRecords(habits)

	prev := s.doc
	next := *prev
	next.Habits = habits
	if max := maxRecordID(habits); next.NextID < max {
		next.NextID = max
	}
	s.doc = &next
	if err := s.save(); err != nil {
		s.doc = prev
		return err
	}
	return nil
}

func (s *JSONStore) NextHabitID() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return 0, err
	}

	s.doc.NextID++
	if err := s.save(); err != nil {
		s.doc.NextID--
		return 0, err
	}
	return s.doc.NextID, nil
}

func (s *JSONStore) GetHabit(id int) (models.HabitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return models.HabitRecord{}, err
	}

	for _, r := range s.doc.Habits {
		if r.ID == id {
			return r, nil
		}
	}
	return models.HabitRecord{}, fmt.Errorf("%w: %d", ErrNotFound, id)
}

// SaveHabit inserts the record or replaces the stored record with the same id
func (s *JSONStore) SaveHabit(record models.HabitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}

	prev := s.doc
	next := *prev
	next.Habits = make([]models.HabitRecord, 0, len(prev.Habits)+1)
	replaced := false
	for _, r := range prev.Habits {
		if r.ID == record.ID {
			next.Habits = append(next.Habits, record)
			replaced = true
			continue
		}
		next.Habits = append(next.Habits, r)
	}
	if !replaced {
		next.Habits = append(next.Habits, record)
		sortRecords(next.Habits)
	}
	if next.NextID < record.ID {
		next.NextID = record.ID
	}

	s.doc = &next
	if err := s.save(); err != nil {
		s.doc = prev
		return err
	}
	return nil
}

func (s *JSONStore) DeleteHabit(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}

	prev := s.doc
	next := *prev
	next.Habits = make([]models.HabitRecord, 0, len(prev.Habits))
	for _, r := range prev.Habits {
		if r.ID != id {
			next.Habits = append(next.Habits, r)
		}
	}
	if len(next.Habits) == len(prev.Habits) {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	s.doc = &next
	if err := s.save(); err != nil {
		s.doc = prev
		return err
	}
	return nil
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}

func sortRecords(records []models.HabitRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
}

func maxRecordID(records []models.HabitRecord) int {
	max := 0
	for _, r := range records {
		if r.ID > max {
			max = r.ID
		}
	}
	return max
}
