package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"smarttodo/internal/models"
	"smarttodo/internal/store"
	"smarttodo/internal/tasks"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type cliEnv struct {
	t        *testing.T
	dataFile string
}

// newCLIEnv isolates config lookup and gives the run its own task file.
func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, key := range []string{"DATA_FILE", "PORT", "REMOTE_DRIVER", "REMOTE_DSN", "PREFER_LOCAL"} {
		t.Setenv("SMARTTODO_"+key, "")
	}
	return &cliEnv{t: t, dataFile: filepath.Join(t.TempDir(), "tasks.json")}
}

func (e *cliEnv) run(args ...string) (stdout, stderr string, err error) {
	e.t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--file", e.dataFile}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, stderr, err := e.run(args...)
	require.NoError(e.t, err, "stderr: %s", stderr)
	return out
}

func (e *cliEnv) stored() []models.Task {
	e.t.Helper()
	list, err := store.NewJSONStore(e.dataFile).Load()
	require.NoError(e.t, err)
	return list
}

func relDate(days int) string {
	return models.FormatDate(models.Date(time.Now()).AddDate(0, 0, days))
}

func TestAddListShow(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("add", "Write", "report", "--due", relDate(1), "--priority", "high", "--notes", "Q2")
	assert.Contains(t, out, "Added task 1: Write report")
	env.mustRun("add", "Buy milk", "-p", "low")

	out = env.mustRun("list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Write report")
	assert.Contains(t, lines[0], "[urgent]")
	assert.Contains(t, lines[1], "Buy milk")

	out = env.mustRun("list", "--sort", "id", "--priority", "LOW")
	assert.NotContains(t, out, "Write report")
	assert.Contains(t, out, "Buy milk")

	out = env.mustRun("show", "1")
	assert.Contains(t, out, "Title:     Write report")
	assert.Contains(t, out, "Priority:  High")
	assert.Contains(t, out, "Notes:     Q2")
	assert.Contains(t, out, "Urgency:   5.900")

	stored := env.stored()
	require.Len(t, stored, 2)
	assert.Equal(t, models.PriorityLow, stored[1].Priority)
}

func TestAdd_ValidationError(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("add", "  ")
	assert.ErrorIs(t, err, tasks.ErrValidation)

	_, _, err = env.run("add", "x", "--due", "tomorrow")
	assert.ErrorIs(t, err, tasks.ErrValidation)

	assert.Empty(t, env.stored())
}

func TestList_UnknownSort(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("list", "--sort", "title")
	assert.ErrorContains(t, err, "unknown sort")
}

func TestShow_Errors(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("show", "3")
	assert.ErrorIs(t, err, tasks.ErrNotFound)

	_, _, err = env.run("show", "abc")
	assert.ErrorContains(t, err, `invalid task id "abc"`)
}

func TestEdit(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("add", "Original", "--due", relDate(2), "--notes", "keep")

	env.mustRun("edit", "1", "--title", "Renamed", "--due", "", "--priority", "High")

	stored := env.stored()
	require.Len(t, stored, 1)
	assert.Equal(t, "Renamed", stored[0].Title)
	assert.Empty(t, stored[0].DueDate)
	assert.Equal(t, models.PriorityHigh, stored[0].Priority)
	assert.Equal(t, "keep", stored[0].Notes)

	_, _, err := env.run("edit", "9", "--title", "x")
	assert.ErrorIs(t, err, tasks.ErrNotFound)
}

func TestDoneAndRm(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("add", "a")
	env.mustRun("add", "b")

	out, _, err := env.run("done", "1", "7")
	assert.ErrorIs(t, err, tasks.ErrNotFound)
	assert.Contains(t, out, "Completed task 1")

	stored := env.stored()
	assert.Equal(t, models.StatusCompleted, stored[0].Status)
	assert.NotEmpty(t, stored[0].CompletedAt)

	out = env.mustRun("rm", "2")
	assert.Contains(t, out, "Deleted task 2")
	out = env.mustRun("rm", "2")
	assert.Contains(t, out, "No task 2")

	assert.Len(t, env.stored(), 1)
}

func TestPriorityAndSnooze(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("add", "dated", "--due", relDate(1))
	env.mustRun("add", "undated")

	out := env.mustRun("priority", "1", "low")
	assert.Contains(t, out, "priority is now Low")

	out = env.mustRun("snooze", "1", "--days", "3")
	assert.Contains(t, out, "now due "+relDate(4))

	out = env.mustRun("snooze", "1")
	assert.Contains(t, out, "now due "+relDate(5))

	_, _, err := env.run("snooze", "2")
	assert.ErrorContains(t, err, "no due date")

	_, _, err = env.run("snooze", "5")
	assert.ErrorIs(t, err, tasks.ErrNotFound)
}

func TestOverdueUpcomingSearch(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("add", "late bill", "--due", relDate(-2))
	env.mustRun("add", "dentist", "--due", relDate(3))
	env.mustRun("add", "vacation", "--due", relDate(20), "--notes", "book a dentist first")

	out := env.mustRun("overdue")
	assert.Contains(t, out, "late bill")
	assert.Contains(t, out, "[overdue]")
	assert.NotContains(t, out, "dentist")

	out = env.mustRun("upcoming")
	assert.Contains(t, out, "dentist")
	assert.NotContains(t, out, "vacation")

	out = env.mustRun("upcoming", "--days", "30")
	assert.Contains(t, out, "vacation")

	out = env.mustRun("search", "DENTIST")
	assert.Contains(t, out, "dentist")
	assert.Contains(t, out, "vacation")
	assert.NotContains(t, out, "late bill")

	out = env.mustRun("search", "nothing-matches")
	assert.Contains(t, out, "No tasks")
}

func TestStats(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("add", "a", "-p", "high")
	env.mustRun("add", "b", "-p", "high")
	env.mustRun("add", "c")
	env.mustRun("done", "1")

	out := env.mustRun("stats", "--days", "3")
	assert.Contains(t, out, "Completed per day (last 3 days)")
	assert.Contains(t, out, relDate(0)+"    1  #")
	assert.Contains(t, out, "total 1")
	assert.Contains(t, out, "High      2")
	assert.Contains(t, out, "Normal    1")
	assert.Contains(t, out, "Low       0")
}

func TestExport(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("add", "Write report", "--due", "2030-01-02", "-p", "high")
	env.mustRun("add", "Buy milk")

	out := env.mustRun("export")
	var doc struct {
		Tasks []models.Task `yaml:"tasks"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Tasks, 2)
	assert.Equal(t, "Write report", doc.Tasks[0].Title)
	assert.Equal(t, "2030-01-02", doc.Tasks[0].DueDate)
	assert.Equal(t, models.PriorityHigh, doc.Tasks[0].Priority)

	path := filepath.Join(t.TempDir(), "out.json")
	env.mustRun("export", "--format", "json", "-o", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rows []models.Row
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Nil(t, rows[1].DueDate)
	assert.Equal(t, "Normal", *rows[1].Priority)

	_, _, err = env.run("export", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")
}

type failingCloser struct {
	err    error
	closed bool
}

func (c *failingCloser) Close() error {
	c.closed = true
	return c.err
}

func TestCloseExport(t *testing.T) {
	errDisk := errors.New("disk full")
	errEncode := errors.New("encode failed")

	c := &failingCloser{err: errDisk}
	err := closeExport(c, "out.yaml", nil)
	assert.True(t, c.closed)
	assert.ErrorIs(t, err, errDisk)
	assert.ErrorContains(t, err, "failed to close out.yaml")

	c = &failingCloser{err: errDisk}
	assert.Equal(t, errEncode, closeExport(c, "out.yaml", errEncode))
	assert.True(t, c.closed)

	assert.NoError(t, closeExport(&failingCloser{}, "out.yaml", nil))
}

func TestExport_UnwritablePath(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("add", "Buy milk")

	_, _, err := env.run("export", "-o", filepath.Join(t.TempDir(), "missing", "out.yaml"))
	assert.ErrorContains(t, err, "failed to create")
}

func TestSync_SharedSQLiteRemote(t *testing.T) {
	remotePath := filepath.Join(t.TempDir(), "shared.db")

	alice := newCLIEnv(t)
	t.Setenv("SMARTTODO_REMOTE_DRIVER", "sqlite")
	t.Setenv("SMARTTODO_REMOTE_DSN", remotePath)
	alice.mustRun("add", "from alice")

	bob := &cliEnv{t: t, dataFile: filepath.Join(t.TempDir(), "bob.json")}
	require.NoError(t, store.NewJSONStore(bob.dataFile).Save([]models.Task{{
		ID:        models.Int64(50),
		Title:     "bob offline",
		Priority:  models.PriorityNormal,
		Status:    models.StatusPending,
		CreatedAt: "2025-05-01T00:00:00Z",
		UpdatedAt: "2025-05-01T00:00:00Z",
	}}))

	out := bob.mustRun("sync")
	assert.Contains(t, out, "pushed 1, pulled 1, updated 0")

	stored := bob.stored()
	require.Len(t, stored, 2)
	titles := []string{stored[0].Title, stored[1].Title}
	assert.ElementsMatch(t, []string{"bob offline", "from alice"}, titles)

	alice.mustRun("done", "1")
	out = bob.mustRun("sync", "--prefer-local=false")
	assert.Contains(t, out, "updated 1")

	out = alice.mustRun("sync")
	assert.Contains(t, out, "pulled 1")
}

func TestSync_WithoutRemote(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("sync")
	assert.ErrorContains(t, err, "no remote store available")

	t.Setenv("SMARTTODO_REMOTE_DRIVER", "sqlite")
	t.Setenv("SMARTTODO_REMOTE_DSN", filepath.Join(t.TempDir(), "r.db"))
	_, _, err = env.run("--offline", "sync")
	assert.ErrorContains(t, err, "no remote store available")
}

func TestUnreachableRemoteFallsBackToLocal(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("SMARTTODO_REMOTE_DRIVER", "sqlite")
	t.Setenv("SMARTTODO_REMOTE_DSN", filepath.Join(t.TempDir(), "missing", "dir", "r.db"))

	out, stderr, err := env.run("add", "still works")
	require.NoError(t, err)
	assert.Contains(t, out, "Added task 1")
	assert.Contains(t, stderr, "remote store unavailable")
	assert.Len(t, env.stored(), 1)
}

func TestInvalidConfig(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("SMARTTODO_REMOTE_DRIVER", "mysql")

	_, _, err := env.run("list")
	assert.ErrorContains(t, err, `unknown remote driver "mysql"`)
}

func TestConfigCommands(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(t.TempDir(), "smarttodo.yaml")

	out := env.mustRun("--config", path, "config", "path")
	assert.Equal(t, path+"\n", out)

	out = env.mustRun("--config", path, "config", "init")
	assert.Contains(t, out, "Wrote "+path)

	_, _, err := env.run("--config", path, "config", "init")
	assert.ErrorContains(t, err, "already exists")
	env.mustRun("--config", path, "config", "init", "--force")

	out = env.mustRun("--config", path, "config", "show")
	assert.Contains(t, out, "data_file: "+env.dataFile)
	assert.Contains(t, out, "port: 8080")
	assert.Contains(t, out, "prefer_local: true")
}

func TestServe_StopsWhenContextDone(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	ran := make(chan struct{})
	go func() {
		done <- serve(ctx, srv, log.New(io.Discard, "", 0), func(context.Context) { close(ran) })
	}()

	<-ran
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestPeriodicSync(t *testing.T) {
	remote, err := store.NewSQLiteRemote(":memory:")
	require.NoError(t, err)
	defer remote.Close()

	seeded := "Pending"
	_, err = remote.Insert(context.Background(), models.Row{Title: "remote", Status: &seeded})
	require.NoError(t, err)

	m := tasks.New(store.NewJSONStore(filepath.Join(t.TempDir(), "t.json")),
		tasks.WithRemote(remote), tasks.WithLogger(log.New(io.Discard, "", 0)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		periodicSync(ctx, m, 10*time.Millisecond, true, time.Second, log.New(io.Discard, "", 0))
		close(done)
	}()

	require.Eventually(t, func() bool { return len(m.List()) == 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
