// Package detect implements the heuristic field and action classifier. It maps
// an interactive element's attributes to an optional risk signal. Everything
// here is a pure function over the tagged element variants. False positives
// are acceptable: the remote analysis service does the judging, this layer
// only nominates candidates.
package detect

import (
	"net/url"
	"strings"

	"riskwatch/internal/event"
	"riskwatch/internal/page"
)

const (
	// Candidate card-number length window for number/tel inputs.
	cardLengthMin = 12
	cardLengthMax = 19

	// Rendered text kept on button/filename metadata is capped for logs and
	// downstream storage.
	maxMetaText = 60
)

// Signal is the classifier's structured verdict on one interaction. Fields
// preserves match order: keyword-list order first, synthetic hints appended.
type Signal struct {
	Type     event.Type
	Trigger  event.Trigger
	Fields   []string
	Button   string
	Filename string
}

// Meta converts the signal into the opaque payload shipped with an envelope.
func (s *Signal) Meta() *event.Meta {
	if s == nil {
		return nil
	}
	return &event.Meta{
		Fields:     s.Fields,
		Trigger:    s.Trigger,
		ButtonText: s.Button,
		Filename:   s.Filename,
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// truncate caps display text for metadata, appending an ellipsis when cut.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

// fieldText builds the normalized blob the keyword detectors run over.
func fieldText(in *page.Input) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{in.Name, in.DOMID, in.Placeholder, in.AriaLabel, in.Label} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return normalize(strings.Join(parts, " "))
}

func matchKeywords(text string, keywords []string) []string {
	var hits []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits = append(hits, kw)
		}
	}
	return hits
}

func appendUnique(list []string, value string) []string {
	if value == "" {
		return list
	}
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// PaymentFromField reports whether an input looks like a payment field.
// The cc-* autocomplete family wins outright; otherwise keyword hits plus a
// card-number length hint decide. Returns nil on a miss.
func PaymentFromField(in *page.Input) *Signal {
	text := fieldText(in)
	autocomplete := normalize(in.Autocomplete)
	hits := matchKeywords(text, paymentKeywords)

	if autocomplete != "" && hasAnyPrefix(autocomplete, paymentAutocomplete) {
		hits = appendUnique(hits, "cc")
		return &Signal{Type: event.TypePayment, Trigger: event.TriggerAutocomplete, Fields: hits}
	}

	inputType := normalize(in.Type)
	if inputType == "number" || inputType == "tel" {
		if in.MaxLength >= cardLengthMin && in.MaxLength <= cardLengthMax {
			hits = appendUnique(hits, "card")
		}
	}

	if len(hits) > 0 {
		return &Signal{Type: event.TypePayment, Trigger: event.TriggerKeyword, Fields: hits}
	}
	return nil
}

// PIIFromField reports whether an input looks like a personal-information
// field. Input type and autocomplete tokens contribute synthetic hints on top
// of keyword matches. Returns nil on a miss.
func PIIFromField(in *page.Input) *Signal {
	text := fieldText(in)
	autocomplete := normalize(in.Autocomplete)
	hits := matchKeywords(text, piiKeywords)

	switch normalize(in.Type) {
	case "email":
		hits = appendUnique(hits, "email")
	case "tel":
		hits = appendUnique(hits, "phone")
	}

	if autocomplete != "" {
		for _, key := range piiAutocomplete {
			if strings.HasPrefix(autocomplete, key) {
				hits = appendUnique(hits, key)
			}
		}
	}

	if len(hits) > 0 {
		return &Signal{Type: event.TypePII, Trigger: event.TriggerKeyword, Fields: hits}
	}
	return nil
}

// buttonText picks the first non-empty descriptive source, matching how the
// page exposes a clickable's accessible name.
func buttonText(text, value, ariaLabel string) string {
	if text != "" {
		return text
	}
	if value != "" {
		return value
	}
	return ariaLabel
}

// IsPaymentButton reports whether a clickable reads like a purchase action.
func IsPaymentButton(text, value, ariaLabel string) bool {
	blob := normalize(buttonText(text, value, ariaLabel))
	if blob == "" {
		return false
	}
	for _, kw := range paymentButtonKeywords {
		if strings.Contains(blob, kw) {
			return true
		}
	}
	return false
}

// PaymentFromButton classifies a clicked button-like element.
func PaymentFromButton(text, value, ariaLabel string) *Signal {
	if !IsPaymentButton(text, value, ariaLabel) {
		return nil
	}
	return &Signal{
		Type:    event.TypePayment,
		Trigger: event.TriggerButton,
		Button:  truncate(buttonText(text, value, ariaLabel), maxMetaText),
	}
}

// DownloadFromAnchor classifies an anchor click as a download attempt.
// terminal=true means the click is fully handled here (a signal was produced,
// or the target is a fragment/script pseudo-protocol that must be ignored
// outright); terminal=false lets the caller fall through to the
// payment-button check.
func DownloadFromAnchor(a *page.Anchor, pageURL string) (sig *Signal, terminal bool) {
	href := a.Href
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return nil, true
	}

	if a.HasDownload {
		return &Signal{
			Type:     event.TypeDownload,
			Trigger:  event.TriggerDownloadAttr,
			Filename: truncate(a.DownloadName, maxMetaText),
		}, true
	}

	if ext := anchorExtension(href, pageURL); extensionFlagged(ext) {
		segments := strings.Split(href, "/")
		return &Signal{
			Type:     event.TypeDownload,
			Trigger:  event.TriggerFileExt,
			Filename: truncate(segments[len(segments)-1], maxMetaText),
		}, true
	}
	return nil, false
}

// anchorExtension resolves href against the page URL and extracts the path
// extension. Any parse failure degrades to "no extension".
func anchorExtension(href, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}
	path := resolved.Path
	if i := strings.LastIndex(path, "."); i >= 0 {
		return strings.ToLower(path[i+1:])
	}
	return ""
}

func extensionFlagged(ext string) bool {
	for _, e := range DownloadExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// PaymentFromForm runs the payment detector over every control of a submitted
// form and unions the matched tokens into a single form-wide signal.
func PaymentFromForm(f *page.Form) *Signal {
	var hits []string
	for _, in := range f.Controls {
		if sig := PaymentFromField(in); sig != nil {
			for _, field := range sig.Fields {
				hits = appendUnique(hits, field)
			}
		}
	}
	if len(hits) == 0 {
		return nil
	}
	return &Signal{Type: event.TypePayment, Trigger: event.TriggerFormSubmit, Fields: hits}
}
