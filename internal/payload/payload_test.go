package payload

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/ptwebhook/internal/template"
)

func newTemplate(t *testing.T, webhook template.WebhookSettings, keys ...string) *template.Template {
	t.Helper()
	fields := make([]template.Field, len(keys))
	for i, k := range keys {
		fields[i] = template.Field{Key: k, FieldDefinition: template.FieldDefinition{Kind: template.KindText, Label: "Label " + k}}
	}
	tmpl, err := template.New("id", "Release", "New release is out", webhook, fields...)
	if err != nil {
		t.Fatalf("template.New: %v", err)
	}
	return tmpl
}

func TestBuild_OmitsEmptyAndKeepsOrder(t *testing.T) {
	tmpl := newTemplate(t, template.WebhookSettings{}, "z", "a", "m", "b")

	msg := Build(tmpl, map[string]string{
		"z": "last letter",
		"a": "",
		"m": "middle",
		"b": "bee",
	})

	want := []Field{
		{Label: "Label z", Value: "last letter"},
		{Label: "Label m", Value: "middle"},
		{Label: "Label b", Value: "bee"},
	}
	if diff := cmp.Diff(want, msg.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if msg.Title != "Release" || msg.Body != "New release is out" {
		t.Errorf("title/body = %q / %q", msg.Title, msg.Body)
	}
	if msg.Color != nil {
		t.Errorf("color = %v, want nil", *msg.Color)
	}
}

func TestBuild_AllEmpty(t *testing.T) {
	tmpl := newTemplate(t, template.WebhookSettings{}, "a", "b")
	msg := Build(tmpl, map[string]string{"a": "", "b": ""})
	if len(msg.Fields) != 0 {
		t.Errorf("expected no fields, got %v", msg.Fields)
	}
}

func TestBuild_IgnoresUnknownKeys(t *testing.T) {
	tmpl := newTemplate(t, template.WebhookSettings{}, "a")
	msg := Build(tmpl, map[string]string{"a": "x", "stale": "y"})
	if diff := cmp.Diff([]Field{{Label: "Label a", Value: "x"}}, msg.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_WebhookSettings(t *testing.T) {
	color := uint32(0x5865F2)
	tmpl := newTemplate(t, template.WebhookSettings{
		Username:  "Herald",
		AvatarURL: "https://example.com/h.png",
		Color:     &color,
	}, "a")

	msg := Build(tmpl, nil)
	if msg.Username != "Herald" || msg.AvatarURL != "https://example.com/h.png" {
		t.Errorf("webhook presentation = %q / %q", msg.Username, msg.AvatarURL)
	}
	if msg.Color == nil || *msg.Color != color {
		t.Fatalf("color = %v, want %#x", msg.Color, color)
	}

	*msg.Color = 0
	if *tmpl.Webhook.Color != color {
		t.Error("Build must not alias the template color")
	}
}
