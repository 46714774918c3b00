package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/capitals/internal/store"
)

// executeBootstrap runs the bootstrap command with captured output.
func executeBootstrap(t *testing.T, opts *BootstrapOptions, args ...string) (string, string, error) {
	t.Helper()
	cmd := newBootstrapCommand(opts)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBootstrapCommand_Text(t *testing.T) {
	db := filepath.Join(t.TempDir(), "capitals.db")
	opts := &BootstrapOptions{
		RootOptions: &RootOptions{Format: "text"},
		RunIDs:      store.NewFixedGenerator("run-0001"),
	}

	stdout, _, err := executeBootstrap(t, opts, "--db", db)
	require.NoError(t, err)

	assert.Contains(t, stdout, `Committed run run-0001 on unit "example" (4 entities)`)
	assert.Contains(t, stdout, "France (#1) <-> Paris (#1)")
	assert.Contains(t, stdout, "Mexico (#2) <-> Mexico City (#2)")
}

func TestBootstrapCommand_JSONGolden(t *testing.T) {
	db := filepath.Join(t.TempDir(), "capitals.db")
	opts := &BootstrapOptions{
		RootOptions: &RootOptions{Format: "json"},
		RunIDs:      store.NewFixedGenerator("run-0001"),
	}

	stdout, stderr, err := executeBootstrap(t, opts, "--db", db)
	require.NoError(t, err)

	// Logs must stay on stderr so stdout is valid JSON.
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), "stdout: %s", stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, stderr, "bootstrap complete")

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "bootstrap_json", []byte(stdout))
}

func TestBootstrapCommand_ConfigFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "persistence.yaml",
			content: `units:
  - name: example
    database: example.db
`,
		},
		{
			name: "cue",
			file: "persistence.cue",
			content: `units: [{
	name:     "example"
	database: "example.db"
}]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := writeConfig(t, tt.file, tt.content)
			opts := &BootstrapOptions{RootOptions: &RootOptions{Format: "text", Config: cfgPath}}

			_, _, err := executeBootstrap(t, opts)
			require.NoError(t, err)

			// Relative database paths resolve against the config directory.
			_, err = os.Stat(filepath.Join(filepath.Dir(cfgPath), "example.db"))
			assert.NoError(t, err)
		})
	}
}

func TestBootstrapCommand_UnknownUnit(t *testing.T) {
	cfgPath := writeConfig(t, "persistence.yaml", `units:
  - name: example
    database: example.db
`)
	opts := &BootstrapOptions{RootOptions: &RootOptions{Format: "json", Config: cfgPath}}

	stdout, _, err := executeBootstrap(t, opts, "--unit", "production")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeConfiguration, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, `no persistence unit named "production"`)
}

func TestBootstrapCommand_MissingConfig(t *testing.T) {
	opts := &BootstrapOptions{RootOptions: &RootOptions{
		Format: "text",
		Config: filepath.Join(t.TempDir(), "persistence.yaml"),
	}}

	stdout, _, err := executeBootstrap(t, opts)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E201]")
}

func TestBootstrapCommand_UnreachableStore(t *testing.T) {
	cfgPath := writeConfig(t, "persistence.yaml", `units:
  - name: example
    database: /nonexistent/dir/example.db
`)
	opts := &BootstrapOptions{RootOptions: &RootOptions{Format: "json", Config: cfgPath}}

	stdout, _, err := executeBootstrap(t, opts)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeConnection, resp.Error.Code)
}

func TestBootstrapCommand_NoCreate(t *testing.T) {
	cfgPath := writeConfig(t, "persistence.yaml", `units:
  - name: example
    database: missing.db
    create: false
`)
	opts := &BootstrapOptions{RootOptions: &RootOptions{Format: "text", Config: cfgPath}}

	stdout, _, err := executeBootstrap(t, opts)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E202]")
}

func TestBootstrapCommand_RejectsArgs(t *testing.T) {
	opts := &BootstrapOptions{RootOptions: &RootOptions{Format: "text"}}

	_, _, err := executeBootstrap(t, opts, "extra")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBootstrapCommand_RejectsUnknownFlag(t *testing.T) {
	opts := &BootstrapOptions{RootOptions: &RootOptions{Format: "text"}}

	_, _, err := executeBootstrap(t, opts, "--bogus")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown flag: --bogus")
}

func TestBootstrapCommand_ThroughRoot(t *testing.T) {
	db := filepath.Join(t.TempDir(), "capitals.db")
	cmd := NewRootCommand()

	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "json", "bootstrap", "--db", db})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string           `json:"status"`
		Data   bootstrapSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, resp.Data.Entities)
	assert.Len(t, resp.Data.RunID, 36, "run IDs are UUIDs")
}
