package tasks

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"smarttodo/internal/models"
	"smarttodo/internal/store"
)

// memStore is an in-memory LocalStore that records every save.
type memStore struct {
	tasks   []models.Task
	saves   int
	loadErr error
	saveErr error
}

func (s *memStore) Load() ([]models.Task, error) {
	out := make([]models.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out, s.loadErr
}

func (s *memStore) Save(tasks []models.Task) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.tasks = make([]models.Task, len(tasks))
	for i, t := range tasks {
		s.tasks[i] = t.Clone()
	}
	return nil
}

// fakeRemote is an in-memory store.Remote with failure injection.
type fakeRemote struct {
	rows   []models.Row
	nextID int64

	inserted      []models.Row
	statusUpdates []int64
	deletes       []int64

	insertErr        error
	insertsBeforeErr int
	selectErr        error
	updateErr        error
	deleteErr        error
}

func newFakeRemote(rows ...models.Row) *fakeRemote {
	f := &fakeRemote{rows: rows, nextID: 1}
	for _, r := range rows {
		if r.ID != nil && *r.ID >= f.nextID {
			f.nextID = *r.ID + 1
		}
	}
	return f
}

func (f *fakeRemote) Insert(_ context.Context, row models.Row) (models.Row, error) {
	if f.insertErr != nil && len(f.inserted) >= f.insertsBeforeErr {
		return models.Row{}, &store.RemoteError{Op: "insert", Kind: store.RemoteUnavailable, Err: f.insertErr}
	}
	row.ID = models.Int64(f.nextID)
	f.nextID++
	f.rows = append(f.rows, row)
	f.inserted = append(f.inserted, row)
	return row, nil
}

func (f *fakeRemote) SelectAll(context.Context) ([]models.Row, error) {
	if f.selectErr != nil {
		return nil, &store.RemoteError{Op: "select", Kind: store.RemoteUnavailable, Err: f.selectErr}
	}
	out := make([]models.Row, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeRemote) UpdateStatus(_ context.Context, id int64, status models.Status) (models.Row, error) {
	f.statusUpdates = append(f.statusUpdates, id)
	if f.updateErr != nil {
		return models.Row{}, &store.RemoteError{Op: "update", Kind: store.RemoteOperationFailed, Err: f.updateErr}
	}
	for i := range f.rows {
		if f.rows[i].ID != nil && *f.rows[i].ID == id {
			s := string(status)
			f.rows[i].Status = &s
			return f.rows[i], nil
		}
	}
	return models.Row{}, &store.RemoteError{Op: "update", Kind: store.RemoteNotFound}
}

func (f *fakeRemote) Delete(_ context.Context, id int64) (models.Row, error) {
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return models.Row{}, &store.RemoteError{Op: "delete", Kind: store.RemoteOperationFailed, Err: f.deleteErr}
	}
	for i := range f.rows {
		if f.rows[i].ID != nil && *f.rows[i].ID == id {
			row := f.rows[i]
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return row, nil
		}
	}
	return models.Row{}, &store.RemoteError{Op: "delete", Kind: store.RemoteNotFound}
}

func (f *fakeRemote) Close() error { return nil }

// testClock is a settable time source.
type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

var errBoom = errors.New("boom")

// baseTime is 2025-05-31, the "today" used throughout these tests.
var baseTime = time.Date(2025, 5, 31, 12, 0, 0, 0, time.UTC)

func date(s string) time.Time {
	d, ok := models.ParseDate(s)
	if !ok {
		panic("bad test date " + s)
	}
	return d
}

type fixture struct {
	m      *Manager
	local  *memStore
	remote *fakeRemote
	clock  *testClock
	logs   *bytes.Buffer
}

func newFixture(t *testing.T, local *memStore, remote *fakeRemote) *fixture {
	t.Helper()
	if local == nil {
		local = &memStore{}
	}
	f := &fixture{
		local:  local,
		remote: remote,
		clock:  &testClock{t: baseTime},
		logs:   &bytes.Buffer{},
	}
	opts := []Option{
		WithClock(f.clock.now),
		WithLogger(log.New(f.logs, "", 0)),
	}
	if remote != nil {
		opts = append(opts, WithRemote(remote))
	}
	f.m = New(local, opts...)
	return f
}

func task(id int64, title string) models.Task {
	return models.Task{
		ID:        models.Int64(id),
		Title:     title,
		Priority:  models.PriorityNormal,
		Status:    models.StatusPending,
		CreatedAt: "2025-05-01T00:00:00Z",
		UpdatedAt: "2025-05-01T00:00:00Z",
	}
}

func ids(tasks []models.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.IDValue()
	}
	return out
}

func strp(s string) *string { return &s }
