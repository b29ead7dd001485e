package tabular

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-cert/internal/domain"
)

func TestSplitRecord(t *testing.T) {
	testCases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ,c ", []string{"a", "b", "c"}},
		{`"Doe, Jane",jane@x.com`, []string{"Doe, Jane", "jane@x.com"}},
		{`"say ""hi""",2`, []string{`say "hi"`, "2"}},
		{"a,,c", []string{"a", "", "c"}},
		{"a,", []string{"a", ""}},
		{"", []string{""}},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, SplitRecord(tc.in, ','), "SplitRecord(%q)", tc.in)
	}
}

func TestParseInsufficientData(t *testing.T) {
	for _, content := range []string{"", "name,email", "name,email\n\n   \n"} {
		_, err := Parse("c_enrollment.csv", content)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInsufficientData), "content %q", content)

		var fe *domain.FileError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "c_enrollment.csv", fe.File)
	}
}

func TestParseShortRowsAndBlankLines(t *testing.T) {
	f, err := Parse("bio_101.csv", "name,email,last_interaction\r\n\r\nJane Doe,jane@x.com\n")
	require.NoError(t, err)
	require.Len(t, f.Rows, 1)
	assert.Equal(t, "Jane Doe", f.Rows[0]["name"])
	_, present := f.Rows[0]["last_interaction"]
	assert.False(t, present)
	assert.Equal(t, domain.Enrollment, f.StreamType)
	assert.Equal(t, "bio_101", f.CourseID)
}

func TestParseTabDelimited(t *testing.T) {
	f, err := Parse("aifi_301_quiz_scores.tsv", "student_family_name\tstudent_given_name\tQuiz1\nDoe\tJane\t90%\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"student_family_name", "student_given_name", "Quiz1"}, f.Header)
	assert.Equal(t, "90%", f.Rows[0]["Quiz1"])
	assert.Equal(t, domain.Assessment, f.StreamType)
	assert.Equal(t, "aifi_301", f.CourseID)
}

func TestParseTabsWithCommasUntouched(t *testing.T) {
	f, err := Parse("x.csv", "name,notes\nJane,a\tb\n")
	require.NoError(t, err)
	assert.Equal(t, "a\tb", f.Rows[0]["notes"])
}

func TestParseBOMHeader(t *testing.T) {
	f, err := Parse("x.csv", "\ufeffname,email\nJane,j@x.com\n")
	require.NoError(t, err)
	assert.Equal(t, "name", f.Header[0])
}

func TestInferCourseID(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"aifi_301_enrollment.csv", "aifi_301"},
		{"aifi_301_quiz_scores.csv", "aifi_301"},
		{"AIFI_302-Scores.CSV", "AIFI_302"},
		{"uploads/bio_101 activity.txt", "bio_101"},
		{"bio_101.csv", "bio_101"},
		{"scores.csv", "scores"},
		{`C:\exports\chem_200_grades.csv`, "chem_200"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, InferCourseID(tc.in), "InferCourseID(%q)", tc.in)
	}
}

func TestInferStreamType(t *testing.T) {
	assert.Equal(t, domain.Assessment, InferStreamType("aifi_quiz.csv", []string{"name"}))
	assert.Equal(t, domain.Assessment, InferStreamType("aifi.csv", []string{"Student Family Name", "Q1"}))
	assert.Equal(t, domain.Enrollment, InferStreamType("aifi_enrollment.csv", []string{"name", "email"}))
}

func TestSplitName(t *testing.T) {
	testCases := []struct {
		in, first, last string
	}{
		{"Jane Doe", "Jane", "Doe"},
		{"Doe, Jane", "Jane", "Doe"},
		{"Mary Ann  Smith", "Mary", "Ann Smith"},
		{"Cher", "Cher", ""},
		{"  ", "", ""},
	}
	for _, tc := range testCases {
		first, last := SplitName(tc.in)
		assert.Equal(t, tc.first, first, "SplitName(%q) first", tc.in)
		assert.Equal(t, tc.last, last, "SplitName(%q) last", tc.in)
	}
}

func TestEnrollments(t *testing.T) {
	today := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f, err := Parse("aifi_301_enrollment.csv", "name,email,last_interaction,progress\n"+
		"Jane Doe,jane@x.com,2024-01-05 10:00,100%\n"+
		"John Roe,john@x.com,never,50\n"+
		",,2024-01-01\n")
	require.NoError(t, err)

	recs, diag, err := Enrollments(f, today)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 1, diag.RowsSkipped)

	assert.Equal(t, "Jane", recs[0].FirstName)
	assert.Equal(t, "Doe", recs[0].LastName)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), recs[0].LastActivity)
	assert.Equal(t, today, recs[0].EnrollmentDate)
	assert.True(t, recs[0].ProgressComplete)

	assert.Equal(t, today, recs[1].LastActivity)
	assert.False(t, recs[1].ProgressComplete)
}

func TestEnrollmentsMissingColumns(t *testing.T) {
	f, err := Parse("c_enrollment.csv", "joined,score\n2024-01-01,5\n")
	require.NoError(t, err)
	_, _, err = Enrollments(f, time.Time{})
	assert.True(t, errors.Is(err, domain.ErrMissingRequiredColumn))
}

func TestAssessments(t *testing.T) {
	f, err := Parse("aifi_301_quiz_scores.csv", "student_family_name,student_given_name,Student ID,Quiz1,Quiz2\n"+
		"Doe,Jane,17,90%,not attempted\n"+
		"Roe,John,18,0.8\n"+
		",,19,50,50\n")
	require.NoError(t, err)

	recs, diag, err := Assessments(f)
	require.NoError(t, err)
	assert.Equal(t, 1, diag.RowsSkipped)
	require.Len(t, recs, 3)

	assert.Equal(t, AssessmentRecord{FirstName: "Jane", LastName: "Doe", Quiz: "Quiz1", Score: domain.Percentage(90)}, recs[0])
	assert.Equal(t, "Quiz2", recs[1].Quiz)
	assert.True(t, recs[1].Score.IsIncomplete())
	assert.Equal(t, AssessmentRecord{FirstName: "John", LastName: "Roe", Quiz: "Quiz1", Score: domain.Percentage(80)}, recs[2])
}

func TestAssessmentsCombinedStudentColumn(t *testing.T) {
	f, err := Parse("c_scores.csv", "Student,Final\n\"Doe, Jane\",77\n")
	require.NoError(t, err)
	recs, _, err := Assessments(f)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Jane", recs[0].FirstName)
	assert.Equal(t, "Doe", recs[0].LastName)
}

func TestAssessmentsMissingColumns(t *testing.T) {
	f, err := Parse("c_scores.csv", "Quiz1,Quiz2\n1,2\n")
	require.NoError(t, err)
	_, _, err = Assessments(f)
	assert.True(t, errors.Is(err, domain.ErrMissingRequiredColumn))
}

func TestExtractDate(t *testing.T) {
	d, ok := ExtractDate("Last seen 2023-11-30T14:00:00Z")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC), d)

	_, ok = ExtractDate("2023-13-45")
	assert.False(t, ok)
	_, ok = ExtractDate("")
	assert.False(t, ok)
}
