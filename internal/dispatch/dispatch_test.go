package dispatch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dshills/ptwebhook/internal/payload"
)

func sampleMessage() payload.Message {
	color := uint32(3447003)
	return payload.Message{
		Title:    "Release",
		Body:     "v1.2 is out",
		Color:    &color,
		Username: "Herald",
		Fields: []payload.Field{
			{Label: "Version", Value: "1.2"},
			{Label: "Notes", Value: "faster"},
		},
	}
}

func TestSend_Success(t *testing.T) {
	var (
		gotUA   string
		gotType string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := New(WithLogger(zaptest.NewLogger(t)))
	out := d.Send(context.Background(), srv.URL, sampleMessage())

	assert.Equal(t, Success{Status: http.StatusOK}, out)
	assert.True(t, out.OK())
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, "application/json", gotType)

	require.NotNil(t, gotBody)
	assert.Equal(t, "Herald", gotBody["username"])
	embeds, ok := gotBody["embeds"].([]any)
	require.True(t, ok)
	require.Len(t, embeds, 1)
	embed := embeds[0].(map[string]any)
	assert.Equal(t, "Release", embed["title"])
	assert.Equal(t, float64(3447003), embed["color"])
	fields := embed["fields"].([]any)
	require.Len(t, fields, 2)
	assert.Equal(t, map[string]any{"name": "Version", "value": "1.2", "inline": false}, fields[0])
}

func TestSend_NoContentIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	out := New().Send(context.Background(), srv.URL, sampleMessage())
	assert.Equal(t, Success{Status: http.StatusNoContent}, out)
}

func TestSend_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "Not Found")
	}))
	defer srv.Close()

	out := New().Send(context.Background(), srv.URL, sampleMessage())
	assert.Equal(t, HTTPError{Status: 404, Body: "Not Found"}, out)
	assert.False(t, out.OK())
}

func TestSend_UnreadableErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "trunc")
	}))
	defer srv.Close()

	out := New().Send(context.Background(), srv.URL, sampleMessage())
	assert.Equal(t, HTTPError{Status: 500, Body: UnreadableBody}, out)
}

func TestSend_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	out := New().Send(context.Background(), url, sampleMessage())
	netErr, ok := out.(NetworkError)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, ConnectFailure, netErr.Kind)
	assert.Error(t, netErr.Err)
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	d := New(WithTimeout(50 * time.Millisecond))
	out := d.Send(context.Background(), srv.URL, sampleMessage())

	netErr, ok := out.(NetworkError)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, Timeout, netErr.Kind)
}

func TestSend_Cancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	out := New().Send(ctx, srv.URL, sampleMessage())
	netErr, ok := out.(NetworkError)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, Other, netErr.Kind)
	assert.True(t, errors.Is(netErr, context.Canceled))
}

func TestSend_MalformedURL(t *testing.T) {
	out := New().Send(context.Background(), "://nowhere", sampleMessage())
	netErr, ok := out.(NetworkError)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, Other, netErr.Kind)
}

func TestNew_Options(t *testing.T) {
	d := New(WithTimeout(0), WithUserAgent(""), WithHTTPClient(nil), WithLogger(nil))
	assert.Equal(t, DefaultTimeout, d.Timeout())
	assert.Equal(t, DefaultUserAgent, d.userAgent)
	assert.NotNil(t, d.client)
	assert.NotNil(t, d.logger)

	d = New(WithTimeout(time.Second), WithUserAgent("probe/2"))
	assert.Equal(t, time.Second, d.Timeout())
	assert.Equal(t, "probe/2", d.userAgent)
}

func TestEncode_OmitsOptionalMembers(t *testing.T) {
	raw, err := Encode(payload.Message{Title: "T", Body: "B"})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"embeds":[{"title":"T","description":"B","fields":[]}]}`,
		string(raw))
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name string
		out  Outcome
		want string
	}{
		{"success", Success{Status: 204}, "Message sent successfully (HTTP 204)"},
		{"plain body", HTTPError{Status: 404, Body: "Not Found"}, "HTTP 404: Not Found"},
		{"discord json", HTTPError{Status: 400, Body: `{"message": "Invalid Webhook Token", "code": 50027}`}, "HTTP 400: Invalid Webhook Token"},
		{"rate limited", HTTPError{Status: 429, Body: `{"message":"You are being rate limited.","retry_after":1.5,"global":false}`}, "HTTP 429: You are being rate limited. (retry after 1.5s)"},
		{"json without message", HTTPError{Status: 500, Body: `{"code":0}`}, `HTTP 500: {"code":0}`},
		{"empty body", HTTPError{Status: 502, Body: "  "}, "HTTP 502: empty response"},
		{"timeout", NetworkError{Kind: Timeout}, "Connection timeout"},
		{"connect", NetworkError{Kind: ConnectFailure, Err: errors.New("refused")}, "Connection error, check your network: refused"},
		{"other", NetworkError{Kind: Other, Err: errors.New("boom")}, "Request failed: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.out.Summary())
		})
	}
}

func TestNetworkErrorKind_String(t *testing.T) {
	assert.Equal(t, "timeout", Timeout.String())
	assert.Equal(t, "connect", ConnectFailure.String())
	assert.Equal(t, "other", Other.String())
	assert.Equal(t, "kind(9)", NetworkErrorKind(9).String())
}
