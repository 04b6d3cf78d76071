package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseCSV(t *testing.T) {
	path := writeTempCSV(t, "test,result,unit\nhemoglobin,14.1,g/dL\nglucose,90,mg/dL\n")

	text, err := ParseCSV(path)
	require.NoError(t, err)
	assert.Equal(t, "test: hemoglobin, result: 14.1, unit: g/dL\ntest: glucose, result: 90, unit: mg/dL", text)
}

func TestParseCSVHeaderOnly(t *testing.T) {
	path := writeTempCSV(t, "test,result\n")

	text, err := ParseCSV(path)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestParseCSVMissingFile(t *testing.T) {
	_, err := ParseCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
