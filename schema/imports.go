package schema

// ImportTarget identifies a tariff import endpoint
type ImportTarget string

const (
	ImportSeasons  ImportTarget = "seasons"
	ImportHeadings ImportTarget = "headings"
	ImportHSCodes  ImportTarget = "hscodes"
)

// Path returns endpoint path relative to API base
func (t ImportTarget) Path() string {
	return "import/" + string(t) + "/"
}

// IsValid returns true for known targets
func (t ImportTarget) IsValid() bool {
	switch t {
	case ImportSeasons, ImportHeadings, ImportHSCodes:
		return true
	}
	return false
}

// RowError describes a rejected import row
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ImportReport summarises a tariff import; a report with errors is returned with status 207
type ImportReport struct {
	Model     string     `json:"model"`
	DryRun    bool       `json:"dry_run"`
	TotalRows int        `json:"total_rows"`
	Created   int        `json:"created"`
	Updated   int        `json:"updated"`
	Skipped   int        `json:"skipped"`
	Errors    int        `json:"errors"`
	RowErrors []RowError `json:"row_errors"`
}
