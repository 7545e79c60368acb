package dispatch

import (
	"github.com/bytedance/sonic"

	"github.com/dshills/ptwebhook/internal/payload"
)

// webhookBody is the Discord execute-webhook request body.
type webhookBody struct {
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       *uint32      `json:"color,omitempty"`
	Fields      []embedField `json:"fields"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Encode renders msg as a Discord webhook JSON body.
func Encode(msg payload.Message) ([]byte, error) {
	fields := make([]embedField, len(msg.Fields))
	for i, f := range msg.Fields {
		fields[i] = embedField{Name: f.Label, Value: f.Value}
	}

	body := webhookBody{
		Username:  msg.Username,
		AvatarURL: msg.AvatarURL,
		Embeds: []embed{{
			Title:       msg.Title,
			Description: msg.Body,
			Color:       msg.Color,
			Fields:      fields,
		}},
	}
	return sonic.Marshal(&body)
}
