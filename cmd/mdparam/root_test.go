package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFixture = "../../memstore/testdata/sample.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDumpFixture(t *testing.T) {
	out, err := execute(t, "dump", "--source", sampleFixture, "--method", "ReadBuffer")
	require.NoError(t, err)
	assert.Contains(t, out, ".method Sample.Io::ReadBuffer(\n")
	assert.Contains(t, out, "    .param [2] = int32(-1)\n")
	assert.NotContains(t, out, "CreateFileW")
}

func TestDumpTokens(t *testing.T) {
	out, err := execute(t, "dump", "--source", sampleFixture, "--method", "Sample.Io::ReadBuffer", "--tokens")
	require.NoError(t, err)
	assert.Contains(t, out, "( // 0x06000002\n")
}

func TestDumpUnknownMethod(t *testing.T) {
	_, err := execute(t, "dump", "--source", sampleFixture, "--method", "Nope")
	assert.ErrorContains(t, err, `method "Nope" not found`)
}

func TestDumpRequiresSource(t *testing.T) {
	_, err := execute(t, "dump")
	assert.ErrorContains(t, err, "source.kind is required")
}

func TestExportThenDumpDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sample.db")
	_, err := execute(t, "export", "--source", sampleFixture, "-o", db)
	require.NoError(t, err)

	out, err := execute(t, "dump", "--source", db)
	require.NoError(t, err)
	want, err := os.ReadFile("../../printer/testdata/golden/sample.golden")
	require.NoError(t, err)
	assert.Equal(t, string(want), out)

	_, err = execute(t, "dump", "--source", db, "--module", "Other")
	assert.ErrorContains(t, err, "not found")
}
