package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliSchemaYAML = `
table: users
columns:
  - name: id
    type: int
    constraints: [primary_key]
  - name: name
    type: text
  - name: age
    type: int
`

// runCLI executes the root command against a shared temp database and
// returns stdout.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	global := []string{
		"--db", filepath.Join(dir, "test.db"),
		"--schema", filepath.Join(dir, "table.yaml"),
	}

	cmd := NewRootCommand()
	cmd.SetArgs(append(global, args...))

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()
	return out.String(), err
}

func cliDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "table.yaml"), []byte(cliSchemaYAML), 0o644))
	return dir
}

func TestCLI_InsertGetDump(t *testing.T) {
	dir := cliDir(t)

	out, err := runCLI(t, dir, "insert", "1", "ada", "36")
	require.NoError(t, err)
	assert.Contains(t, out, "inserted (id=1)")

	out, err = runCLI(t, dir, "insert", "2", "bob", "41")
	require.NoError(t, err)
	assert.Contains(t, out, "inserted (id=2)")

	out, err = runCLI(t, dir, "get", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "2\tbob\t41")

	out, err = runCLI(t, dir, "dump")
	require.NoError(t, err)
	assert.Contains(t, out, "1\tada\t36")
	assert.Contains(t, out, "2\tbob\t41")
	assert.Contains(t, out, "(2 rows)")
}

func TestCLI_UpdateWhere(t *testing.T) {
	dir := cliDir(t)

	_, err := runCLI(t, dir, "insert", "1", "ada", "36")
	require.NoError(t, err)
	_, err = runCLI(t, dir, "insert", "2", "bob", "41")
	require.NoError(t, err)

	_, err = runCLI(t, dir, "update", "--set", "age=42", "--where", "id = 2")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "get", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "2\tbob\t42")

	out, err = runCLI(t, dir, "get", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1\tada\t36")
}

func TestCLI_UpdateAll(t *testing.T) {
	dir := cliDir(t)

	_, err := runCLI(t, dir, "insert", "1", "ada", "36")
	require.NoError(t, err)
	_, err = runCLI(t, dir, "insert", "2", "bob", "41")
	require.NoError(t, err)

	_, err = runCLI(t, dir, "update", "--set", "age=0", "--all")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "dump")
	require.NoError(t, err)
	assert.Contains(t, out, "1\tada\t0")
	assert.Contains(t, out, "2\tbob\t0")
}

func TestCLI_UpdateFlagValidation(t *testing.T) {
	dir := cliDir(t)

	_, err := runCLI(t, dir, "update", "--set", "age=1")
	assert.Error(t, err, "one of --where or --all required")

	_, err = runCLI(t, dir, "update", "--set", "age=1", "--all", "--where", "id = 1")
	assert.Error(t, err, "--where and --all are exclusive")

	_, err = runCLI(t, dir, "update", "--all")
	assert.Error(t, err, "--set required")
}

func TestCLI_Delete(t *testing.T) {
	dir := cliDir(t)

	_, err := runCLI(t, dir, "insert", "1", "ada", "36")
	require.NoError(t, err)
	_, err = runCLI(t, dir, "insert", "2", "bob", "41")
	require.NoError(t, err)

	_, err = runCLI(t, dir, "delete", "--where", "id = 1")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "dump")
	require.NoError(t, err)
	assert.NotContains(t, out, "ada")
	assert.Contains(t, out, "(1 rows)")
}

func TestCLI_GetMiss(t *testing.T) {
	dir := cliDir(t)

	_, err := runCLI(t, dir, "get", "404")
	assert.Error(t, err)
}

func TestCLI_InvalidFormat(t *testing.T) {
	dir := cliDir(t)

	_, err := runCLI(t, dir, "--format", "xml", "dump")
	assert.Error(t, err)
}
