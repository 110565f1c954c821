package page

import "fmt"

// ElementID is the opaque identity handle the page instrumentation assigns to
// each element it reports. Cooldown bookkeeping keys on it so nothing in this
// process ever holds a reference that could extend an element's lifetime.
type ElementID uint64

// Element is the tagged variant produced by the boundary adapter. The page
// script describes a raw element once; everything downstream consumes one of
// the concrete shapes below instead of re-probing attributes.
type Element interface {
	Handle() ElementID
	element()
}

// Input covers text-entry controls (input and textarea).
type Input struct {
	ID           ElementID
	Name         string
	DOMID        string
	Placeholder  string
	AriaLabel    string
	Label        string
	Autocomplete string
	Type         string
	MaxLength    int // 0 when the attribute is absent
}

// Anchor covers link elements. Text is kept because link-styled buttons are
// still candidates for the payment-button check.
type Anchor struct {
	ID           ElementID
	Href         string
	HasDownload  bool
	DownloadName string
	Text         string
}

// Button covers button elements and submit/button/image inputs.
type Button struct {
	ID        ElementID
	Text      string
	Value     string
	AriaLabel string
}

// Form covers a submitted form together with its input-like descendants.
type Form struct {
	ID       ElementID
	Controls []*Input
}

func (e *Input) Handle() ElementID  { return e.ID }
func (e *Anchor) Handle() ElementID { return e.ID }
func (e *Button) Handle() ElementID { return e.ID }
func (e *Form) Handle() ElementID   { return e.ID }

func (*Input) element()  {}
func (*Anchor) element() {}
func (*Button) element() {}
func (*Form) element()   {}

// InteractionType distinguishes the event classes the detector listens for.
type InteractionType string

const (
	InteractionInput  InteractionType = "input"  // value-changing events
	InteractionClick  InteractionType = "click"  // pointer clicks
	InteractionSubmit InteractionType = "submit" // form submission
)

// Interaction is one observed page event, captured ahead of the page's own
// handlers so page code cannot suppress it.
type Interaction struct {
	Type    InteractionType
	Target  Element
	PageURL string
	Trusted bool
	Button  int // pointer button; 0 is primary
}

// RawElement is the wire shape the page instrumentation reports. The adapter
// inspects it exactly once and produces the tagged variant.
type RawElement struct {
	Kind         string       `json:"kind"`
	Handle       uint64       `json:"handle"`
	Name         string       `json:"name,omitempty"`
	ID           string       `json:"id,omitempty"`
	Placeholder  string       `json:"placeholder,omitempty"`
	AriaLabel    string       `json:"ariaLabel,omitempty"`
	Label        string       `json:"label,omitempty"`
	Autocomplete string       `json:"autocomplete,omitempty"`
	Type         string       `json:"type,omitempty"`
	MaxLength    int          `json:"maxLength,omitempty"`
	Href         string       `json:"href,omitempty"`
	HasDownload  bool         `json:"hasDownload,omitempty"`
	DownloadName string       `json:"downloadName,omitempty"`
	Text         string       `json:"text,omitempty"`
	Value        string       `json:"value,omitempty"`
	Controls     []RawElement `json:"controls,omitempty"`
}

// Adapt converts a reported raw element into its tagged variant.
func Adapt(raw RawElement) (Element, error) {
	handle := ElementID(raw.Handle)
	switch raw.Kind {
	case "input", "textarea":
		return &Input{
			ID:           handle,
			Name:         raw.Name,
			DOMID:        raw.ID,
			Placeholder:  raw.Placeholder,
			AriaLabel:    raw.AriaLabel,
			Label:        raw.Label,
			Autocomplete: raw.Autocomplete,
			Type:         raw.Type,
			MaxLength:    raw.MaxLength,
		}, nil
	case "anchor":
		return &Anchor{
			ID:           handle,
			Href:         raw.Href,
			HasDownload:  raw.HasDownload,
			DownloadName: raw.DownloadName,
			Text:         raw.Text,
		}, nil
	case "button":
		return &Button{
			ID:        handle,
			Text:      raw.Text,
			Value:     raw.Value,
			AriaLabel: raw.AriaLabel,
		}, nil
	case "form":
		controls := make([]*Input, 0, len(raw.Controls))
		for _, c := range raw.Controls {
			el, err := Adapt(c)
			if err != nil {
				return nil, err
			}
			in, ok := el.(*Input)
			if !ok {
				return nil, fmt.Errorf("form control %d: want input-like, got %q", c.Handle, c.Kind)
			}
			controls = append(controls, in)
		}
		return &Form{ID: handle, Controls: controls}, nil
	default:
		return nil, fmt.Errorf("unknown element kind %q", raw.Kind)
	}
}
