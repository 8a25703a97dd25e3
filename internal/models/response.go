package models

// APIResponse is the envelope of every JSON body the API returns
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// Success builds a successful envelope; data may be nil
func Success(message string, data any) APIResponse {
	return APIResponse{Success: true, Message: message, Data: data}
}

// Failure builds an error envelope
func Failure(errorText, message string) APIResponse {
	return APIResponse{Success: false, Error: errorText, Message: message}
}

// AuthPayload is returned by login and register
type AuthPayload struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// FieldError describes one failed validation rule on a request field
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}
