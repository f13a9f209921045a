package pipeline

import "fmt"

// SinkWriteError reports that the final document could not be persisted.
type SinkWriteError struct {
	Object string
	Err    error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("write aggregate %s: %v", e.Object, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }
