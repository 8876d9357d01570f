package model

import "time"

// TaskStatus represents the current state of a server-side stage run.
type TaskStatus string

const (
	TaskQueued   TaskStatus = "queued"
	TaskRunning  TaskStatus = "running"
	TaskComplete TaskStatus = "complete"
	TaskFailed   TaskStatus = "failed"
)

// Stage names one pipeline step.
type Stage string

const (
	StageBuild    Stage = "build"
	StageWebsites Stage = "websites"
	StageEmails   Stage = "emails"
	StageContacts Stage = "contacts"
)

// Counters tallies per-stage outcomes.
type Counters struct {
	Attempted int `json:"attempted"`
	Found     int `json:"found"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Task is one stage invocation tracked by the task server.
type Task struct {
	ID        string     `json:"id"`
	Stage     Stage      `json:"stage"`
	Status    TaskStatus `json:"status"`
	Counters  *Counters  `json:"counters,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
