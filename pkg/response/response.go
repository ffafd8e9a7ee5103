package response

// Response is the standard API envelope. Failures carry a stable message key
// the frontend resolves against its i18n catalog; raw internal detail never
// crosses this boundary.
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	MessageKey string      `json:"message_key,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response with a localizable message key and
// a generic English fallback text
func Error(statusCode int, messageKey, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		MessageKey: messageKey,
		Error:      err,
	}
}
