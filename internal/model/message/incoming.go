package message

import (
	"encoding/json"
	"fmt"
)

// Kind 表示 WhatsApp 消息类型。未识别的类型同样是合法值，由下游决定如何回复。
type Kind string

const (
	KindText  Kind = "text"
	KindAudio Kind = "audio"
	KindVoice Kind = "voice"
)

// IsAudio 判断消息是否携带需要转写的语音。
func (k Kind) IsAudio() bool {
	return k == KindAudio || k == KindVoice
}

// IncomingMessage 是一次 webhook 投递中第一条用户消息的规范化结果。
type IncomingMessage struct {
	Sender  string  `json:"sender"`
	Kind    Kind    `json:"kind"`
	Text    *string `json:"text,omitempty"`
	MediaID *string `json:"mediaId,omitempty"`
}

// WebhookPayload mirrors the subset of the Cloud API delivery envelope we read.
type WebhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value *struct {
				Messages []RawMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// RawMessage is one element of value.messages as sent by the platform.
type RawMessage struct {
	From  string     `json:"from"`
	Type  string     `json:"type"`
	Text  *textBody  `json:"text"`
	Audio *mediaBody `json:"audio"`
	Voice *mediaBody `json:"voice"`
}

type textBody struct {
	Body *string `json:"body"`
}

type mediaBody struct {
	ID       *string `json:"id"`
	MimeType string  `json:"mime_type"`
}

// Parse decodes a raw delivery body. The boolean is false when the delivery carries no user
// message (status callbacks, empty batches); only malformed JSON is reported as an error.
func Parse(raw []byte) (IncomingMessage, bool, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return IncomingMessage{}, false, fmt.Errorf("decode webhook payload: %w", err)
	}

	msg, ok := Extract(payload)
	return msg, ok, nil
}

// Extract picks the first message of the first change of the first entry. Later entries,
// changes and messages of a batched delivery are ignored.
func Extract(payload WebhookPayload) (IncomingMessage, bool) {
	if len(payload.Entry) == 0 {
		return IncomingMessage{}, false
	}
	changes := payload.Entry[0].Changes
	if len(changes) == 0 {
		return IncomingMessage{}, false
	}
	value := changes[0].Value
	if value == nil || len(value.Messages) == 0 {
		return IncomingMessage{}, false
	}

	raw := value.Messages[0]
	kind := Kind(raw.Type)
	if kind == "" {
		kind = KindText
	}

	msg := IncomingMessage{Sender: raw.From, Kind: kind}

	switch kind {
	case KindText:
		if raw.Text != nil && raw.Text.Body != nil {
			body := *raw.Text.Body
			msg.Text = &body
		}
	case KindAudio:
		msg.MediaID = mediaID(raw.Audio)
	case KindVoice:
		msg.MediaID = mediaID(raw.Voice)
	}

	return msg, true
}

func mediaID(media *mediaBody) *string {
	if media == nil || media.ID == nil {
		return nil
	}
	id := *media.ID
	return &id
}
