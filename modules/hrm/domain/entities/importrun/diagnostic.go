package importrun

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Section tells which stage of a run produced a diagnostic.
type Section string

const (
	SectionHeader Section = "header"
	SectionRow    Section = "row"
	SectionBatch  Section = "batch"
)

// Diagnostic is a single finding. Row is the spreadsheet row number where the
// header is row 1; zero means the finding is not tied to a row.
type Diagnostic struct {
	Section  Section  `json:"section"`
	Severity Severity `json:"severity"`
	Row      int      `json:"row,omitempty"`
	Field    string   `json:"column,omitempty"`
	Message  string   `json:"message"`
}

func RowError(row int, field, msg string) Diagnostic {
	return Diagnostic{Section: SectionRow, Severity: SeverityError, Row: row, Field: field, Message: msg}
}

func RowWarning(row int, field, msg string) Diagnostic {
	return Diagnostic{Section: SectionRow, Severity: SeverityWarning, Row: row, Field: field, Message: msg}
}

func BatchError(msg string) Diagnostic {
	return Diagnostic{Section: SectionBatch, Severity: SeverityError, Message: msg}
}

func BatchWarning(msg string) Diagnostic {
	return Diagnostic{Section: SectionBatch, Severity: SeverityWarning, Message: msg}
}

func HeaderWarning(field, msg string) Diagnostic {
	return Diagnostic{Section: SectionHeader, Severity: SeverityWarning, Field: field, Message: msg}
}
