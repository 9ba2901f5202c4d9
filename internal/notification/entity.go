package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EventInsert is the only webhook event type that triggers a push.
const EventInsert = "INSERT"

// WebhookEvent is the payload a database webhook posts on row changes.
type WebhookEvent struct {
	Type      string          `json:"type"`
	Table     string          `json:"table"`
	Schema    string          `json:"schema"`
	Record    *Record         `json:"record"`
	OldRecord json.RawMessage `json:"old_record,omitempty"`
}

// Record is a row of the notifications table.
type Record struct {
	Kind           string  `json:"tp_notificacao"`
	SenderID       FlexID  `json:"id_usuario_remetente"`
	RecipientID    FlexID  `json:"id_usuario_destinatario"`
	NotificationID FlexID  `json:"id_notificacao"`
	PushMessage    *string `json:"mensagem_push"`
}

// FlexID is an identifier column that may arrive as a JSON number or string.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }
