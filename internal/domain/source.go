package domain

// SourceStatus is the outcome of querying one upstream source.
type SourceStatus int

const (
	StatusEmpty SourceStatus = iota
	StatusData
	StatusFailed
)

func (s SourceStatus) String() string {
	switch s {
	case StatusData:
		return "data"
	case StatusFailed:
		return "failed"
	default:
		return "empty"
	}
}

// SourceResult is what one normalizer produced. A source that failed after
// emitting some alerts still reports StatusData; Err is kept for logging.
type SourceResult struct {
	Source string
	Alerts []Alert
	Err    error
}

// Status classifies the result.
func (r SourceResult) Status() SourceStatus {
	switch {
	case len(r.Alerts) > 0:
		return StatusData
	case r.Err != nil:
		return StatusFailed
	default:
		return StatusEmpty
	}
}
