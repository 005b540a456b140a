package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipts-parser/internal/common"
)

const traderJoes = `TRADER JOE'S
Date: 2024-03-02
Bananas 3 @ 0.50 = 1.50
Greek Yogurt 4.99
Sourdough Bread 3.99
TOTAL 10.48`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("RECEIPTS_DB_DRIVER", "postgres")
	t.Setenv("RECEIPTS_DB_DSN", "")
	t.Setenv("RECEIPTS_CACHE_PATH", "")
	t.Setenv("RECEIPTS_LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestParseCommand(t *testing.T) {
	p := writeFile(t, t.TempDir(), "tj.txt", traderJoes)

	out, err := run(t, "parse", p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "SUCCESS", got["status"])
	assert.Equal(t, "10.48", got["total"])
	assert.Len(t, got["line_items"], 3)
}

func TestParseCommand_UnsupportedIsFailedOutcome(t *testing.T) {
	p := writeFile(t, t.TempDir(), "notes.docx", "hello")

	out, err := run(t, "parse", p)
	require.NoError(t, err)
	assert.Contains(t, out, `"status":"FAILED"`)
}

func TestParseCommand_MissingFile(t *testing.T) {
	_, err := run(t, "parse", filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "in")
	require.NoError(t, os.Mkdir(dir, 0o755))
	writeFile(t, dir, "a.txt", traderJoes)
	writeFile(t, dir, "b.txt", "nothing to see here")
	writeFile(t, dir, "dup.txt", traderJoes)
	writeFile(t, dir, "skip.docx", "ignored")

	out, err := run(t, "batch", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Duplicates skipped: 1")
	assert.Contains(t, out, "success 1")
	assert.Contains(t, out, "failed 1")

	f, err := excelize.OpenFile(filepath.Join(root, "receipts.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Receipts")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, strings.HasSuffix(rows[1][0], "a.txt"))
	assert.Equal(t, "SUCCESS", rows[1][1])
	assert.Equal(t, "FAILED", rows[2][1])
}

func TestDBCommands_RequireDatabase(t *testing.T) {
	for _, args := range [][]string{{"dbhealth"}, {"history", "bananas"}, {"export"}} {
		_, err := run(t, args...)
		require.Error(t, err, args[0])
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	}
}

func TestParseThenHistory_SQLite(t *testing.T) {
	dir := t.TempDir()
	dsn := "file:" + filepath.Join(dir, "receipts.db") + "?_pragma=foreign_keys(1)"
	p := writeFile(t, dir, "tj.txt", traderJoes)
	db := []string{"--db-driver", "sqlite", "--db-dsn", dsn}

	out, err := run(t, append([]string{"dbhealth"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "0 merchants")

	_, err = run(t, append([]string{"parse", p}, db...)...)
	require.NoError(t, err)

	out, err = run(t, append([]string{"history", "Bananas"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "2024-03-02")
	assert.Contains(t, out, "Trader Joe's")
	assert.Contains(t, out, "1.50")

	xlsx := filepath.Join(dir, "export.xlsx")
	_, err = run(t, append([]string{"export", "--out", xlsx, "--from", "2024-03-01", "--to", "2024-03-31"}, db...)...)
	require.NoError(t, err)
	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Receipts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Trader Joe's", rows[1][3])
}

func TestExportCommand_BadDate(t *testing.T) {
	_, err := run(t, "export", "--from", "03/01/2024")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
