package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event kinds treated as inbound messages. Anything else is ignored.
var messageEvents = map[string]bool{
	"message":        true,
	"message:in:new": true,
}

// Payload is an inbound Wassenger webhook event.
type Payload struct {
	Event string      `json:"event"`
	Data  MessageData `json:"data"`
}

// MessageData is the message portion of a Payload. Unknown fields are
// ignored.
type MessageData struct {
	ID         string     `json:"id"`
	Phone      string     `json:"phone"`
	FromNumber string     `json:"fromNumber"`
	Type       string     `json:"type"`
	Body       string     `json:"body"`
	Text       string     `json:"text"`
	URL        string     `json:"url"`
	Filename   string     `json:"filename"`
	Mimetype   string     `json:"mimetype"`
	Media      *MediaInfo `json:"media"`
}

// MediaInfo describes an attachment on a media message.
type MediaInfo struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Mimetype string `json:"mimetype"`
}

// ParsePayload decodes a raw webhook body. An empty body decodes to an
// empty, ignorable Payload.
func ParsePayload(raw []byte) (Payload, error) {
	var p Payload
	if len(strings.TrimSpace(string(raw))) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("webhook: parse payload: %w", err)
	}
	return p, nil
}

// IsMessage reports whether the event carries an inbound message.
func (p Payload) IsMessage() bool {
	return messageEvents[p.Event]
}

// Sender returns the sender's phone as supplied by the platform.
func (d MessageData) Sender() string {
	if s := strings.TrimSpace(d.Phone); s != "" {
		return s
	}
	return strings.TrimSpace(d.FromNumber)
}

// MediaURL returns the media location, preferring the top-level url.
func (d MessageData) MediaURL() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Media != nil {
		return d.Media.URL
	}
	return ""
}

// TextBody returns the body of a text message.
func (d MessageData) TextBody() string {
	if d.Body != "" {
		return d.Body
	}
	return d.Text
}

func (d MessageData) mediaFilename() string {
	if d.Media != nil && d.Media.Filename != "" {
		return d.Media.Filename
	}
	return d.Filename
}

func (d MessageData) mediaMimetype() string {
	if d.Media != nil && d.Media.Mimetype != "" {
		return d.Media.Mimetype
	}
	return d.Mimetype
}
