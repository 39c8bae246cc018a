package storage

import "time"

// EventWriter is the interface for writing tool call audit events.
// Write() must NEVER block the caller.
type EventWriter interface {
	Write(event *ToolCallEvent)
	Close()
}

// ToolCallEvent records one tool invocation, successful or not.
type ToolCallEvent struct {
	RequestID      string
	Timestamp      time.Time
	ToolName       string
	ArgumentsJSON  string
	Outcome        string // "ok", "validation_error", "unsafe_query", "unknown_tool", "execution_error"
	ErrorDetail    string
	RowCount       int32
	EffectiveLimit int32
	LatencyMs      float32
}
