package event

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies what kind of risky interaction a record describes.
type Type string

const (
	TypePII      Type = "pii_input"
	TypePayment  Type = "payment"
	TypeDownload Type = "download"
)

// Trigger names the classifier rule that produced a signal.
type Trigger string

const (
	TriggerKeyword      Trigger = "keyword"
	TriggerAutocomplete Trigger = "autocomplete"
	TriggerButton       Trigger = "button"
	TriggerFormSubmit   Trigger = "form_submit"
	TriggerDownloadAttr Trigger = "download_attr"
	TriggerFileExt      Trigger = "file_ext"
)

// Meta is the opaque structured payload attached to a classified interaction.
// Only the fields relevant to the trigger are populated.
type Meta struct {
	Fields     []string `json:"fields,omitempty"`
	Trigger    Trigger  `json:"trigger,omitempty"`
	ButtonText string   `json:"buttonText,omitempty"`
	Filename   string   `json:"filename,omitempty"`
}

// Record is an immutable history entry. It is created once, at the moment a
// submission resolves, and only ever destroyed by ring-buffer eviction or an
// explicit reset.
type Record struct {
	Timestamp time.Time `json:"ts"`
	Type      Type      `json:"type"`
	URL       string    `json:"url"`
	Meta      *Meta     `json:"meta"`
	Reasons   []string  `json:"reasons"`
	OK        bool      `json:"ok"`
}

// Envelope carries a classified interaction from the detector context to the
// coordinator. Reply is optional; the submission client leaves it nil and
// never awaits a result.
type Envelope struct {
	ID     uuid.UUID
	Type   Type
	URL    string
	Meta   *Meta
	Origin string // sending context URL, used when URL is empty
	Reply  chan<- Ack
}

// Ack is the coordinator's response on the inter-context channel.
type Ack struct {
	OK      bool
	Stopped bool
}
