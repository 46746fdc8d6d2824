package types

// SubmitRequest is the body of POST /api/submit.
type SubmitRequest struct {
	// Message typed by the user. Empty or whitespace-only is a no-op.
	// example: I have had a headache for three days.
	Message string `json:"message" example:"I have had a headache for three days."`
}

// TurnView is one rendered chat turn.
type TurnView struct {
	// Role of the author: system, user or assistant.
	// example: assistant
	Role string `json:"role" example:"assistant"`
	// Message text (raw, not HTML).
	Content string `json:"content"`
	// Creation time in unix seconds.
	// example: 1700000000
	AtUnix int64 `json:"at_unix" example:"1700000000"`
}

// TranscriptResponse is returned by GET /api/turns and POST /api/clear.
type TranscriptResponse struct {
	// Session identifier (also carried in the medchat_session cookie).
	SessionID string `json:"session_id"`
	// Turns in order, starting with the system turn.
	Turns []TurnView `json:"turns"`
	// Message of the last failed submit, if any.
	LastError string `json:"last_error,omitempty"`
}

// SubmitResponse is returned by POST /api/submit.
type SubmitResponse struct {
	SessionID string `json:"session_id"`
	// Reply is nil when the message was empty.
	Reply *TurnView `json:"reply,omitempty"`
	// Turns after the submit.
	Turns []TurnView `json:"turns"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Lifecycle state: loading, ready or error.
	// example: ready
	State string `json:"state" example:"ready"`
	// Backend name: llama or server.
	// example: llama
	Backend string `json:"backend" example:"llama"`
	// Path of the provisioned weights file.
	ModelPath string `json:"model_path,omitempty"`
	// True when the weights were downloaded during this run.
	Downloaded bool `json:"downloaded"`
	// Live chat sessions.
	Sessions int `json:"sessions"`
	// Callers holding a queue slot, including the running one.
	QueueLen int `json:"queue_len"`
	// Number of in-flight completions (0 or 1).
	Inflight int `json:"inflight"`
	// Maximum queued completions before backpressure triggers.
	// example: 8
	MaxQueueDepth int `json:"max_queue_depth" example:"8"`
	// Error that stopped loading, if any.
	Error string `json:"error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
