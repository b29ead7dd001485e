package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExports(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"aifi_301_enrollment.csv":  "name,email,last_interaction\nJane Doe,jane@x.com,2024-01-05 10:00\nJohn Roe,john@x.com,2024-01-06\n",
		"aifi_301_quiz_scores.csv": "student_family_name,student_given_name,Quiz1\nDoe,Jane,90%\nRoe,John,75\n",
		"bio_101_enrollment.csv":   "name,email\nAna Li,ana@x.com\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunThenReport(t *testing.T) {
	work := t.TempDir()
	exports := filepath.Join(work, "exports")
	require.NoError(t, os.Mkdir(exports, 0o755))
	writeExports(t, exports)

	t.Setenv("CERTSYNC_SNAPSHOT_PATH", filepath.Join(work, "data", "snapshot.json.br"))
	t.Setenv("CERTSYNC_LOG_FORMAT", "json")
	t.Setenv("CERTSYNC_LOG_LEVEL", "error")

	csvPath := filepath.Join(work, "out", "eligible.csv")
	xlsxPath := filepath.Join(work, "out", "eligible.xlsx")
	stdout, stderr, err := execute(t, "run", exports, "--out", csvPath, "--xlsx", xlsxPath, "--today", "2024-02-01")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Eligible")
	assert.Contains(t, stderr, "skipped bio_101: missing assessment export")

	b, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Jane,Doe,jane@x.com,90,2024-01-05,aifi_301\r\n")
	assert.Contains(t, string(b), "John,Roe,john@x.com,75,2024-01-06,aifi_301\r\n")
	assert.FileExists(t, xlsxPath)

	again := filepath.Join(work, "out", "new.csv")
	_, _, err = execute(t, "run", exports, "--out", again, "--new-only", "--today", "2024-02-01")
	require.NoError(t, err)
	b, err = os.ReadFile(again)
	require.NoError(t, err)
	assert.Equal(t, "First Name,Last Name,Email,Average Score,Last Activity,Courses\r\n", string(b))

	stdout, _, err = execute(t, "report", "--threshold", "80", "--out", "-")
	require.NoError(t, err)
	assert.Contains(t, stdout, "jane@x.com")
	assert.NotContains(t, stdout, "john@x.com")
}

func TestReportWithoutSnapshot(t *testing.T) {
	t.Setenv("CERTSYNC_SNAPSHOT_PATH", filepath.Join(t.TempDir(), "missing.json.br"))
	t.Setenv("CERTSYNC_LOG_FORMAT", "json")

	_, _, err := execute(t, "report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to report")
}

func TestRunRejectsBadFlags(t *testing.T) {
	t.Setenv("CERTSYNC_LOG_FORMAT", "json")

	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"bad today", []string{"run", t.TempDir(), "--today", "01/02/2024", "--no-save"}, "--today"},
		{"threshold out of range", []string{"run", t.TempDir(), "--threshold", "120", "--no-save"}, "--threshold"},
		{"sftp to stdout", []string{"run", t.TempDir(), "--out", "-", "--sftp", "--no-save"}, "--sftp"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
