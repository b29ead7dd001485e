package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"course-cert/internal/domain"
	"course-cert/internal/eligibility"
)

func sampleResult() eligibility.Result {
	return eligibility.Result{
		Eligible: []eligibility.EligibleStudent{{
			StudentAggregate: domain.StudentAggregate{
				FirstName:        "Jane",
				LastName:         "Doe, Jr",
				Email:            "jane@x.com",
				AverageScore:     83.3333,
				LastActivityDate: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC),
			},
			AllCourses: []string{"aifi_301", " aifi_302 "},
		}},
		Stats: eligibility.Stats{TotalStudents: 2, EligibleStudents: 1, AverageScore: 70, PassRate: 50},
	}
}

func TestWriteEligibleCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEligibleCSV(&buf, sampleResult().Eligible))

	want := "First Name,Last Name,Email,Average Score,Last Activity,Courses\r\n" +
		"Jane,\"Doe, Jr\",jane@x.com,83.33,2024-01-05,aifi_301 | aifi_302\r\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteEligibleCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEligibleCSV(&buf, nil))
	assert.Equal(t, "First Name,Last Name,Email,Average Score,Last Activity,Courses\r\n", buf.String())
}

func TestFormatScore(t *testing.T) {
	testCases := []struct {
		input    float64
		expected string
	}{
		{90, "90"},
		{100, "100"},
		{0, "0"},
		{83.3333, "83.33"},
		{72.5, "72.5"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, formatScore(tc.input), "formatScore(%v)", tc.input)
	}
}

func TestWriteEligibleXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEligibleXLSX(&buf, sampleResult()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{EligibleSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(EligibleSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, eligibleHeader, rows[0])
	assert.Equal(t, "jane@x.com", rows[1][2])
	assert.Equal(t, "aifi_301 | aifi_302", rows[1][5])

	rate, err := f.GetCellValue(SummarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "50", rate)
}
