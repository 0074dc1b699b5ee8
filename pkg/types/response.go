package types

import "github.com/angelmondragon/kickfinderz-backend/pkg/notify"

// SuccessEnvelope wraps every successful response. Notices carries the
// user-facing messages produced while handling the request, if any.
type SuccessEnvelope struct {
	Data    any             `json:"data"`
	Notices []notify.Notice `json:"notices,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error   APIError        `json:"error"`
	Notices []notify.Notice `json:"notices,omitempty"`
}
