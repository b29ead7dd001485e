package domain

// StreamType tells which of the two per-course exports a file is.
type StreamType int

const (
	Enrollment StreamType = iota
	Assessment
)

func (t StreamType) String() string {
	if t == Assessment {
		return "assessment"
	}
	return "enrollment"
}

// RawRow maps a header label to the raw cell text of one data line.
type RawRow map[string]string

// SourceFile is one parsed export. CourseID comes from the filename and may
// later be rewritten to a canonical series name by the grouper, which always
// builds a new SourceFile.
type SourceFile struct {
	Name       string
	CourseID   string
	StreamType StreamType
	Header     []string
	Rows       []RawRow
}

// WithCourseID returns a copy of f that belongs to courseID.
func (f SourceFile) WithCourseID(courseID string) SourceFile {
	out := f
	out.CourseID = courseID
	return out
}

// Diagnostics counts rows that were absorbed instead of failing a run.
type Diagnostics struct {
	RowsSkipped             int `json:"rowsSkipped"`
	ExcludedRows            int `json:"excludedRows"`
	UnmatchedAssessmentRows int `json:"unmatchedAssessmentRows"`
}

// Add accumulates o into d.
func (d *Diagnostics) Add(o Diagnostics) {
	d.RowsSkipped += o.RowsSkipped
	d.ExcludedRows += o.ExcludedRows
	d.UnmatchedAssessmentRows += o.UnmatchedAssessmentRows
}
