package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"smarttodo/internal/models"
)

// JSONStore implements LocalStore as a single indented JSON file holding an
// array of rows.
type JSONStore struct {
	path string
}

// NewJSONStore creates a store backed by the file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads the task file.
func (s *JSONStore) Load() ([]models.Task, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Task{}, nil
		}
		return []models.Task{}, fmt.Errorf("failed to read task file: %w", err)
	}

	var rows []models.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return []models.Task{}, fmt.Errorf("failed to parse task file %s: %w", s.path, err)
	}

	tasks := make([]models.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, models.FromRow(r))
	}
	return tasks, nil
}

// Save writes the full collection. The data goes to a temporary file in the
// same directory which is then renamed over the target.
func (s *JSONStore) Save(tasks []models.Task) error {
	rows := make([]models.Row, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, t.ToRow())
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace task file: %w", err)
	}

	return nil
}
