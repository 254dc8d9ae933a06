package models

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type VersionInfo struct {
	Version   string `json:"version"`
	Env       string `json:"env"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
}
