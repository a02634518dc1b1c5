// Package websocket defines the wire schema and small helpers for the live
// exam session channel: the client sends answers and timer controls, the
// server streams the authoritative countdown back.
package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest records one option choice.
type AnswerRequest struct {
	Action Action `json:"action"`
	Number int    `json:"number"`
	Option int    `json:"option"`
}

// SubmitRequest finishes and grades the exam.
type SubmitRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick          Event = "tick"
	EventAnswerSaved   Event = "answer_saved"
	EventAutoSubmitted Event = "auto_submitted"
	EventSubmitted     Event = "submitted"
	EventError         Event = "error"
	EventPong          Event = "pong"
)

// TickEvent carries the authoritative remaining time, pushed every second
// while the countdown runs.
type TickEvent struct {
	Event       Event `json:"event"`
	TimeLeft    int   `json:"time_left"`
	TimerActive bool  `json:"timer_active"`
}

// AnswerSavedEvent acknowledges a recorded answer.
type AnswerSavedEvent struct {
	Event  Event `json:"event"`
	Number int   `json:"number"`
	Option int   `json:"option"`
}

// SubmittedEvent reports the graded result, for both manual submission and
// timer expiry.
type SubmittedEvent struct {
	Event        Event `json:"event"`
	Score        int   `json:"score"`
	TotalScore   int   `json:"total_score"`
	CorrectCount int   `json:"correct_count"`
}

type ErrorEvent struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongEvent struct {
	Event Event `json:"event"`
}
