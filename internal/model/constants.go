package model

// ResultStatus lifecycle of a round's AI analysis record.
type ResultStatus string

const (
	ResultStatusPending   ResultStatus = "PENDING"
	ResultStatusAnalyzing ResultStatus = "ANALYZING"
	ResultStatusCompleted ResultStatus = "COMPLETED"
	ResultStatusFailed    ResultStatus = "FAILED"
)

func (s ResultStatus) String() string {
	return string(s)
}

// Terminal reports whether the pipeline will touch this record again.
func (s ResultStatus) Terminal() bool {
	return s == ResultStatusCompleted || s == ResultStatusFailed
}
