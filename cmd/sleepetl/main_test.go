package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const sampleLog = `w,Sun,,,Mon,,,Tue,,,Wed,,,Thu,,,Fri,,,Sat,,,,
12/4/2016,,,,,,,,,,b,23:45,,w,3:45,4.00,,,,,,,,
,,,,,,,,,,,,,b,23:15,7.50,,,,,,,,
,,,,,,,,,,,,,,,,w,6:45,7.50,,,,,
`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sleep.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0o644))
	return path
}

func TestRunPrintsNights(t *testing.T) {
	out := execute(t, "run", "--log-level", "error", writeSample(t))
	assert.Equal(t, "night 2016-12-07 23:45 no-data=false resumed=true\n"+
		"    nap 23:45 4:00\n"+
		"night 2016-12-08 23:15 no-data=false resumed=false\n"+
		"    nap 23:15 7:30\n", out)
}

func TestRunStoreThenNights(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sleep.db")
	assert.Empty(t, execute(t, "run", "--log-level", "error", "--store", "--db", db, writeSample(t)))

	out := execute(t, "nights", "--log-level", "error", "--db", db)
	assert.Contains(t, out, "2016-12-07 Wed 23:45")
	assert.Contains(t, out, "Nights: 2\n")
	assert.Contains(t, out, "Avg hours: 5.75\n")
}

func TestNightsRejectsBadSince(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"nights", "--since", "12/4/2016", "--db", filepath.Join(t.TempDir(), "x.db")})
	assert.Error(t, cmd.Execute())
}

func TestRunStoreThenNightsWithNaps(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sleep.db")
	execute(t, "run", "--log-level", "error", "--store", "--db", db, writeSample(t))

	out := execute(t, "nights", "--log-level", "error", "--db", db, "--naps")
	assert.Contains(t, out, "2016-12-07 23:45\n    23:45 4:00\n2016-12-08 23:15\n    23:15 7:30\n")
}

type failingCloser struct{}

func (failingCloser) Close() error { return errors.New("busy") }

func TestCloseLoggedWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	prev := log
	log = zap.New(core)
	t.Cleanup(func() { log = prev })

	closeLogged("db", failingCloser{})

	entries := logs.FilterMessage("failed to close db").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "busy", entries[0].ContextMap()["error"])
}
