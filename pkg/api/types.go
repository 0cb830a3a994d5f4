// Package api defines the wire types shared between the statbot server,
// its HTTP client, and the session store.
package api

import "time"

const (
	APIVersion = "statbot.dev/v1"
)

// Resource kinds used in store keys.
const (
	KindSession = "Session"
)

// SessionPhase represents the lifecycle phase of a question-answering session.
type SessionPhase string

const (
	SessionPending   SessionPhase = "Pending"
	SessionRunning   SessionPhase = "Running"
	SessionCompleted SessionPhase = "Completed"
	// SessionExhausted means the reasoning loop hit its iteration cap
	// without the model producing a final answer.
	SessionExhausted SessionPhase = "Exhausted"
	SessionFailed    SessionPhase = "Failed"
)

// Terminal reports whether the phase is a terminal state.
func (p SessionPhase) Terminal() bool {
	switch p {
	case SessionCompleted, SessionExhausted, SessionFailed:
		return true
	}
	return false
}

// ObjectMeta holds metadata common to stored resources.
type ObjectMeta struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Session represents one question-answering session. It is created Pending,
// claimed by the runner, and ends in a terminal phase with the full
// reasoning transcript recorded in its status.
type Session struct {
	APIVersion string        `json:"apiVersion" yaml:"apiVersion"`
	Kind       string        `json:"kind" yaml:"kind"`
	Metadata   ObjectMeta    `json:"metadata" yaml:"metadata"`
	Spec       SessionSpec   `json:"spec" yaml:"spec"`
	Status     SessionStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

type SessionSpec struct {
	Question      string `json:"question" yaml:"question"`
	MaxIterations int    `json:"maxIterations,omitempty" yaml:"maxIterations,omitempty"`
	Year          string `json:"year,omitempty" yaml:"year,omitempty"`
}

type SessionStatus struct {
	Phase      SessionPhase `json:"phase" yaml:"phase"`
	Answer     string       `json:"answer,omitempty" yaml:"answer,omitempty"`
	Model      string       `json:"model,omitempty" yaml:"model,omitempty"`
	Iterations int          `json:"iterations" yaml:"iterations"`
	Turns      []Turn       `json:"turns,omitempty" yaml:"turns,omitempty"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt  time.Time    `json:"startedAt,omitempty" yaml:"startedAt,omitempty"`
	FinishedAt time.Time    `json:"finishedAt,omitempty" yaml:"finishedAt,omitempty"`
}

// Turn records a single iteration of the reasoning loop.
type Turn struct {
	Index       int         `json:"index" yaml:"index"`
	Output      string      `json:"output" yaml:"output"`
	Action      *ActionCall `json:"action,omitempty" yaml:"action,omitempty"`
	Observation string      `json:"observation,omitempty" yaml:"observation,omitempty"`
	Terminal    bool        `json:"terminal" yaml:"terminal"`
}

// ActionCall is a tool invocation parsed out of a model turn.
type ActionCall struct {
	Tool string   `json:"tool" yaml:"tool"`
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`
}

// Category describes one spending category known to the SSB tool layer.
type Category struct {
	Name string `json:"name" yaml:"name"`
	Code string `json:"code" yaml:"code"`
}

// -------------------------------------------------------
// Watch types
// -------------------------------------------------------

// EventType represents the type of a watch event.
type EventType string

const (
	EventAdded    EventType = "ADDED"
	EventModified EventType = "MODIFIED"
	EventDeleted  EventType = "DELETED"
)

// WatchEvent is emitted when a resource changes in the store.
type WatchEvent struct {
	Type   EventType
	Kind   string
	Key    string
	Object interface{}
}
