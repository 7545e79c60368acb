// Package payload assembles the message sent for a filled-in template.
package payload

import "github.com/dshills/ptwebhook/internal/template"

// Field is a labelled value shown in the message.
type Field struct {
	Label string
	Value string
}

// Message is the structured, transport-independent message.
type Message struct {
	Title     string
	Body      string
	Color     *uint32
	Username  string
	AvatarURL string
	Fields    []Field
}

// Build assembles the message for t from the entered values.
// Fields whose value is empty are left out; the rest keep template order.
func Build(t *template.Template, values map[string]string) Message {
	msg := Message{
		Title:     t.Name,
		Body:      t.Description,
		Username:  t.Webhook.Username,
		AvatarURL: t.Webhook.AvatarURL,
	}
	if t.Webhook.Color != nil {
		c := *t.Webhook.Color
		msg.Color = &c
	}

	for _, f := range t.Fields() {
		v := values[f.Key]
		if v == "" {
			continue
		}
		msg.Fields = append(msg.Fields, Field{Label: f.Label, Value: v})
	}
	return msg
}
