package types

type SuccessEnvelope struct {
	Data    any      `json:"data"`
	Notices []Notice `json:"notices,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error   APIError `json:"error"`
	Notices []Notice `json:"notices,omitempty"`
}

// Notice is a user-visible signal raised by a core operation during a request.
type Notice struct {
	Kind    string         `json:"kind"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}
