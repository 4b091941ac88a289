package scrape

import "fmt"

// NetworkError wraps a transport or HTTP failure. The listing step retries
// these; detail-page fetches skip the record instead.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StructureError signals that a page no longer matches the extraction
// assumptions. It is never retried and always fails the run.
type StructureError struct {
	URL      string
	Selector string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("page structure changed at %s: no match for %q", e.URL, e.Selector)
}
