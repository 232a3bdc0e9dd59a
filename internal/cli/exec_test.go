package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qlcache/internal/testutil"
)

var usersScript = []string{
	"CREATE SCHEMA app",
	"CREATE TABLE app.users (id U64 PRIMARY KEY, name TEXT)",
	"INSERT INTO app.users (id, name) VALUES (1, 'ada')",
	"INSERT INTO app.users (id, name) VALUES (2, 'grace')",
	"SELECT name FROM app.users SORT BY name DESC",
}

type execResponse struct {
	Status  string     `json:"status"`
	Data    ExecResult `json:"data"`
	Error   *CLIError  `json:"error"`
	TraceID string     `json:"trace_id"`
}

func runExecCmd(t *testing.T, format, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newExecCommand(&ExecOptions{
		RootOptions: &RootOptions{Format: format},
		IDGenerator: testutil.NewSequenceGenerator("exec"),
	})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func decodeExec(t *testing.T, out string) execResponse {
	t.Helper()
	var resp execResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func TestExecText(t *testing.T) {
	out, err := runExecCmd(t, "text", "", usersScript...)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "CREATE_SCHEMA\nCREATE_TABLE\nINSERT row_id=1\nINSERT row_id=2\n"), out)
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "(2 rows)")
	assert.Less(t, strings.Index(out, "grace"), strings.Index(out, "ada"))
}

func TestExecJSON(t *testing.T) {
	out, err := runExecCmd(t, "json", "", usersScript...)
	require.NoError(t, err)

	resp := decodeExec(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "exec-0001", resp.TraceID)

	stmts := resp.Data.Statements
	require.Len(t, stmts, 5)
	assert.Equal(t, "CREATE SCHEMA app", stmts[0].Statement)
	assert.Equal(t, "CREATE_SCHEMA", stmts[0].Kind)
	assert.Equal(t, "exec-0002", stmts[0].ExecID)
	assert.Equal(t, int64(1), stmts[0].Seq)
	assert.Equal(t, uint64(2), stmts[3].RowID)

	sel := stmts[4]
	assert.Equal(t, "SELECT", sel.Kind)
	assert.Equal(t, "exec-0006", sel.ExecID)
	assert.Equal(t, int64(5), sel.Seq)
	assert.Equal(t, []string{"name"}, sel.Columns)
	assert.Equal(t, []map[string]any{{"name": "grace"}, {"name": "ada"}}, sel.Rows)
}

func TestExecFileThenArgs(t *testing.T) {
	script := filepath.Join(t.TempDir(), "seed.ql")
	require.NoError(t, os.WriteFile(script, []byte(`-- seed data
CREATE TABLE items (sku TEXT PRIMARY KEY, stock U32);
INSERT INTO items (sku, stock) VALUES ('a;b', 3);
`), 0644))

	out, err := runExecCmd(t, "json", "", "--file", script, "SELECT sku FROM items WHERE stock >= 3")
	require.NoError(t, err)

	stmts := decodeExec(t, out).Data.Statements
	require.Len(t, stmts, 3)
	assert.Equal(t, []map[string]any{{"sku": "a;b"}}, stmts[2].Rows)
}

func TestExecStdin(t *testing.T) {
	out, err := runExecCmd(t, "json", "CREATE SCHEMA s; CREATE TABLE s.t (n I64);\nINSERT INTO s.t (n) VALUES (-7);\nSELECT * FROM s.t")
	require.NoError(t, err)

	stmts := decodeExec(t, out).Data.Statements
	require.Len(t, stmts, 4)
	assert.Equal(t, []map[string]any{{"n": float64(-7)}}, stmts[3].Rows)
}

func TestExecDefs(t *testing.T) {
	defsPath := filepath.Join("..", "defs", "testdata", "users.cue")

	out, err := runExecCmd(t, "json", "", "--defs", defsPath, "SELECT name FROM app.users WHERE age > 40")
	require.NoError(t, err)

	stmts := decodeExec(t, out).Data.Statements
	require.Len(t, stmts, 9)
	for _, s := range stmts[:8] {
		assert.Empty(t, s.Statement)
	}
	assert.Equal(t, "CREATE_SCHEMA", stmts[0].Kind)
	assert.Equal(t, []map[string]any{{"name": nil}}, stmts[8].Rows)
}

func TestExecDefsTextSkipsDefinitionStatements(t *testing.T) {
	defsPath := filepath.Join("..", "defs", "testdata", "users.cue")

	out, err := runExecCmd(t, "text", "", "--defs", defsPath, "INSERT INTO app.users (id) VALUES (4)")
	require.NoError(t, err)
	assert.Equal(t, "INSERT row_id=4\n", out)
}

func TestExecStatementFailureJSON(t *testing.T) {
	out, err := runExecCmd(t, "json", "", "CREATE SCHEMA app", "CREATE SCHEMA app", "CREATE SCHEMA other")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeExec(t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "exec-0001", resp.TraceID)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RELATION_ALREADY_EXISTS", resp.Error.Code)

	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "CREATE SCHEMA app", details["statement"])
	assert.Len(t, details["completed"], 1)
}

func TestExecSyntaxErrorText(t *testing.T) {
	out, err := runExecCmd(t, "text", "", "SELEC * FROM t")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [SYNTAX_ERROR]")
	assert.Contains(t, err.Error(), "SYNTAX_ERROR")
}

func TestExecTypesLiteralsAgainstEarlierStatements(t *testing.T) {
	out, err := runExecCmd(t, "json", "", "CREATE TABLE t (n U8)", "INSERT INTO t (n) VALUES (300)")
	require.Error(t, err)

	resp := decodeExec(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TYPE_MISMATCH", resp.Error.Code)
}

func TestExecMissingFile(t *testing.T) {
	_, err := runExecCmd(t, "text", "", "--file", "/nonexistent/script.ql")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to read script")
}

func TestExecMissingDefs(t *testing.T) {
	out, err := runExecCmd(t, "text", "", "--defs", "/nonexistent/defs")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestExecEmptyInput(t *testing.T) {
	out, err := runExecCmd(t, "json", "  -- nothing here\n")
	require.NoError(t, err)

	resp := decodeExec(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Data.Statements)
}
