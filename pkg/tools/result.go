package tools

// Result is the outcome of a dispatched tool call. Content is always
// suitable as the text of a tool message; Err is set when the call failed.
type Result struct {
	Content string
	Err     error
}

// Success wraps tool output.
func Success(content string) Result {
	return Result{Content: content}
}

// Failure turns an error into a result whose text explains it.
func Failure(err error) Result {
	return Result{Content: "Error: " + err.Error(), Err: err}
}

// IsError reports whether the call failed.
func (r Result) IsError() bool {
	return r.Err != nil
}
