package gateway

import (
	"fmt"
	"strings"
)

// Error carries the detail returned by the payment gateway.
type Error struct {
	StatusCode int
	Messages   []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("unexpected status code from midtrans: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code from midtrans: %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

func (e *Error) Detail() string {
	return strings.Join(e.Messages, "; ")
}
