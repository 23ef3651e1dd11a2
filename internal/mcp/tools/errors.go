package tools

import "fmt"

// ConfigurationError means the exchange client could not be initialized. The
// dispatcher stays uninitialized so the next call tries again.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return "Unknown tool: " + e.Name
}

// UpstreamError covers everything that fails after dispatch: argument
// rejection, client-side validation, transport faults and exchange rejections.
// The message is the cause's message, unchanged.
type UpstreamError struct {
	Tool string
	Err  error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }

func (e *UpstreamError) Unwrap() error { return e.Err }
