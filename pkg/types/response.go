package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ProxyError is the fixed shape the reverse proxy returns on any
// proxy-level failure. The frontend has no fallback for a differently
// shaped body, so this must never be wrapped in ErrorEnvelope.
type ProxyError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}
