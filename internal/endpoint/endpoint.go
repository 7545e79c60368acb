// Package endpoint parses the webhook endpoint accepted on the command line.
//
// Three textual forms are accepted:
//
//	https://discord.com/api/webhooks/<id>/<token>   used as is
//	discord.com/api/webhooks/<id>/<token>           prefixed with https://
//	<id>/<token>                                    expanded to the full URL
package endpoint

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// Scheme is the only scheme dispatches are sent over.
	Scheme = "https://"

	// WebhookPath is the host and path prefix shared by every webhook URL.
	WebhookPath = "discord.com/api/webhooks/"

	// BaseURL is the canonical URL prefix.
	BaseURL = Scheme + WebhookPath
)

// ErrInvalidFormat is returned when the input matches none of the supported forms.
var ErrInvalidFormat = errors.New("invalid webhook URL format")

var idTokenPattern = regexp.MustCompile(`^(\d+)/([a-zA-Z0-9_-]+)$`)

// FormatError wraps ErrInvalidFormat with the rejected input.
type FormatError struct {
	Input string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v %q. Supported formats:\n"+
		"  - %s<id>/<token>\n"+
		"  - %s<id>/<token>\n"+
		"  - <id>/<token>", e.Err, e.Input, BaseURL, WebhookPath)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Parse normalizes input into a full webhook URL.
func Parse(input string) (string, error) {
	input = strings.TrimSpace(input)

	var candidate string
	switch {
	case strings.HasPrefix(input, BaseURL):
		candidate = input
	case idTokenPattern.MatchString(input):
		candidate = BaseURL + input
	case strings.HasPrefix(input, WebhookPath):
		candidate = Scheme + input
	default:
		return "", &FormatError{Input: input, Err: ErrInvalidFormat}
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return "", &FormatError{Input: input, Err: fmt.Errorf("%w: %v", ErrInvalidFormat, err)}
	}
	if u.Scheme != "https" || u.Host == "" {
		return "", &FormatError{Input: input, Err: ErrInvalidFormat}
	}
	return candidate, nil
}

// Redact hides everything after the webhook id so the URL can be shown or logged.
func Redact(webhookURL string) string {
	rest, ok := strings.CutPrefix(webhookURL, BaseURL)
	if !ok {
		if len(webhookURL) > 40 {
			return webhookURL[:40] + "***"
		}
		return webhookURL
	}
	id, _, _ := strings.Cut(rest, "/")
	return BaseURL + id + "/***"
}
