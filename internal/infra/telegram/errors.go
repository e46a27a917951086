package telegram

import (
	"context"
	"errors"
	"net"
	"strings"

	"gopkg.in/telebot.v3"
)

var transientMarkers = []string{"(429)", "(500)", "(502)", "(503)", "(504)", "Too Many Requests", "retry after"}

// IsTransientError reports whether a Bot API failure is worth retrying:
// flood control, gateway errors and network timeouts.
func IsTransientError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *telebot.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
