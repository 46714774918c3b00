package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/capitals/internal/bootstrap"
	"github.com/roach88/capitals/internal/persistence"
	"github.com/roach88/capitals/internal/store"
	"github.com/roach88/capitals/internal/testutil"
)

func seedUnit(t *testing.T) persistence.Unit {
	t.Helper()
	unit := testutil.TempUnit(t, "example")
	clock := testutil.NewDeterministicClock()

	_, err := bootstrap.Run(context.Background(), unit, bootstrap.Options{
		RunIDs: store.NewFixedGenerator("run-0001"),
		Now:    clock.Now,
	})
	require.NoError(t, err)
	return unit
}

func executeShow(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	cmd := NewShowCommand(&RootOptions{Format: format})

	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}

func TestShowCommand_TextGolden(t *testing.T) {
	unit := seedUnit(t)

	out, err := executeShow(t, "text", "--db", unit.Database)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "show_text", []byte(out))
}

func TestShowCommand_JSON(t *testing.T) {
	unit := seedUnit(t)

	out, err := executeShow(t, "json", "--db", unit.Database)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   showSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "example", resp.Data.Unit)
	require.Len(t, resp.Data.Pairs, 2)
	assert.Equal(t, "Paris", resp.Data.Pairs[0].Capital)
	require.Len(t, resp.Data.Log, 1)
	assert.Equal(t, "run-0001", resp.Data.Log[0].RunID)
	assert.Equal(t, 4, resp.Data.Log[0].Entities)
}

func TestShowCommand_ReleasesStore(t *testing.T) {
	unit := seedUnit(t)

	_, err := executeShow(t, "text", "--db", unit.Database)
	require.NoError(t, err)

	// The last connection to a WAL database removes the -wal file on close.
	_, err = os.Stat(unit.Database + "-wal")
	assert.True(t, os.IsNotExist(err), "store left open after show")
}

func TestShowCommand_EmptyUnit(t *testing.T) {
	unit := testutil.TempUnit(t, "example")

	out, err := executeShow(t, "text", "--db", unit.Database)
	require.NoError(t, err)
	assert.Contains(t, out, `Unit "example": 0 countries`)
	assert.Contains(t, out, "Transaction log: 0 commits")
}

func TestShowCommand_UnreachableStore(t *testing.T) {
	out, err := executeShow(t, "text", "--db", "/nonexistent/dir/example.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E202]")
}
