package crawling

import "fmt"

// BootstrapError indicates the initial listing request could not yield the
// version token or page count. It is the only crawl failure that aborts a
// run; everything else degrades per page or per item.
type BootstrapError struct {
	Message string
	Cause   error
}

func (e *BootstrapError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bootstrap failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("bootstrap failed: %s", e.Message)
}

func (e *BootstrapError) Unwrap() error {
	return e.Cause
}
