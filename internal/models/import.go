package models

type RowOutcome string

const (
	RowSucceeded RowOutcome = "success"
	RowFailed    RowOutcome = "failed"
	RowDuplicate RowOutcome = "duplicate"
)

const (
	ReasonMissingFields = "missing required fields"
	ReasonInvalidEmail  = "invalid email format"
	ReasonDuplicate     = "contact with this email already exists"
)

// ImportRow is one parsed data row keyed by lower-cased header name.
type ImportRow map[string]string

type ImportError struct {
	Row    int       `json:"row"`
	Reason string    `json:"reason"`
	Data   ImportRow `json:"data"`
}

type ImportResult struct {
	TotalRows  int           `json:"totalRows"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Duplicates int           `json:"duplicates"`
	Errors     []ImportError `json:"errors"`
}

type ImportResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Results *ImportResult `json:"results"`
}
