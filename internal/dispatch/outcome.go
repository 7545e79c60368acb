package dispatch

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Outcome is the classified result of one dispatch attempt.
// Implementations: Success, HTTPError, NetworkError.
type Outcome interface {
	// OK reports whether the message was accepted.
	OK() bool
	// Summary returns a one-line human readable description.
	Summary() string
	outcome()
}

// Success means the endpoint answered with a 2xx status.
type Success struct {
	Status int
}

// HTTPError means the endpoint answered with a non-2xx status.
type HTTPError struct {
	Status int
	Body   string
}

// NetworkErrorKind classifies transport failures.
type NetworkErrorKind uint8

const (
	// Other covers malformed requests and anything unclassified.
	Other NetworkErrorKind = iota
	// Timeout means no response arrived within the timeout window.
	Timeout
	// ConnectFailure covers dial, DNS and refused connections.
	ConnectFailure
)

// String returns a lowercase name for the kind.
func (k NetworkErrorKind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case ConnectFailure:
		return "connect"
	case Other:
		return "other"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// NetworkError means no HTTP response was received.
type NetworkError struct {
	Kind NetworkErrorKind
	Err  error
}

func (Success) outcome()      {}
func (HTTPError) outcome()    {}
func (NetworkError) outcome() {}

func (Success) OK() bool      { return true }
func (HTTPError) OK() bool    { return false }
func (NetworkError) OK() bool { return false }

// Summary implements Outcome.
func (s Success) Summary() string {
	return fmt.Sprintf("Message sent successfully (HTTP %d)", s.Status)
}

// Summary implements Outcome. A JSON error body is reduced to its
// "message" member, plus "retry_after" when rate limited.
func (e HTTPError) Summary() string {
	body := strings.TrimSpace(e.Body)
	detail := body
	if gjson.Valid(body) {
		if msg := gjson.Get(body, "message"); msg.Exists() {
			detail = msg.String()
			if retry := gjson.Get(body, "retry_after"); retry.Exists() {
				detail += fmt.Sprintf(" (retry after %ss)", retry.Raw)
			}
		}
	}
	if detail == "" {
		detail = "empty response"
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, detail)
}

// Summary implements Outcome.
func (e NetworkError) Summary() string {
	var lead string
	switch e.Kind {
	case Timeout:
		lead = "Connection timeout"
	case ConnectFailure:
		lead = "Connection error, check your network"
	case Other:
		lead = "Request failed"
	default:
		panic(fmt.Sprintf("dispatch: unknown network error kind %d", e.Kind))
	}
	if e.Err == nil {
		return lead
	}
	return lead + ": " + e.Err.Error()
}

// Error makes NetworkError usable as an error value.
func (e NetworkError) Error() string {
	return e.Summary()
}

// Unwrap returns the underlying transport error.
func (e NetworkError) Unwrap() error {
	return e.Err
}
