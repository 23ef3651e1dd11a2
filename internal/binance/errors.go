package binance

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

const maxErrorBody = 256

// APIError is a rejection reported by the exchange, e.g. {"code":-1121,"msg":"Invalid symbol."}.
type APIError struct {
	StatusCode int
	Code       int64
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// ValidationError is raised before any request is sent.
type ValidationError struct {
	Op      string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func missingParam(op, name string) error {
	return &ValidationError{Op: op, Message: fmt.Sprintf("%s parameter is required", name)}
}

func parseAPIError(status int, body []byte) error {
	parsed := gjson.ParseBytes(body)
	msg := parsed.Get("msg").String()
	if msg == "" {
		raw := strings.TrimSpace(string(body))
		if len(raw) > maxErrorBody {
			cut := maxErrorBody
			for cut > 0 && !utf8.RuneStart(raw[cut]) {
				cut--
			}
			raw = raw[:cut] + "..."
		}
		return &APIError{StatusCode: status, Message: fmt.Sprintf("unexpected status %d: %s", status, raw)}
	}
	return &APIError{StatusCode: status, Code: parsed.Get("code").Int(), Message: msg}
}
