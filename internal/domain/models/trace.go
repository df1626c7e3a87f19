package models

// StackFrame is a single entry of a parsed stack trace. FilePath is the raw
// path exactly as it appeared in the trace; normalization happens later and
// never mutates the frame.
type StackFrame struct {
	FilePath     string
	LineNumber   int
	FunctionName string
	RawLine      string
}
