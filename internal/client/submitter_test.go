package client

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"riskwatch/internal/detect"
	"riskwatch/internal/event"
	"riskwatch/internal/monitor"
	"riskwatch/internal/page"
)

type SubmitterSuite struct {
	suite.Suite
	state     *monitor.Cache
	out       chan event.Envelope
	now       time.Time
	submitter *Submitter
}

func TestSubmitterSuite(t *testing.T) {
	suite.Run(t, new(SubmitterSuite))
}

func (s *SubmitterSuite) SetupTest() {
	s.state = monitor.NewCache()
	s.out = make(chan event.Envelope, 8)
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gate := detect.NewGate(detect.CooldownWindow, detect.WithClock(func() time.Time { return s.now }))
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.submitter = New(s.state, gate, s.out, WithLogger(logger))
}

func (s *SubmitterSuite) dispatched() []event.Envelope {
	var envs []event.Envelope
	for {
		select {
		case env := <-s.out:
			envs = append(envs, env)
		default:
			return envs
		}
	}
}

func input(id page.ElementID, name string) page.Interaction {
	return page.Interaction{
		Type:    page.InteractionInput,
		Target:  &page.Input{ID: id, Name: name},
		PageURL: "https://example.com/form",
		Trusted: true,
	}
}

func (s *SubmitterSuite) TestPIIInputDispatched() {
	s.submitter.Handle(input(1, "email"))

	envs := s.dispatched()
	s.Require().Len(envs, 1)
	s.Equal(event.TypePII, envs[0].Type)
	s.Equal("https://example.com/form", envs[0].URL)
	s.Require().NotNil(envs[0].Meta)
	s.Equal([]string{"email"}, envs[0].Meta.Fields)
	s.Nil(envs[0].Reply, "fire and forget")
}

func (s *SubmitterSuite) TestPaymentWinsOverPII() {
	// "accountnumber" contains the PII stem "account" and the payment stem
	// "accountnumber", so both detectors would match it.
	ia := input(1, "accountnumber")

	s.submitter.Handle(ia)

	envs := s.dispatched()
	s.Require().Len(envs, 1)
	s.Equal(event.TypePayment, envs[0].Type, "payment precedence suppresses the PII detector")
}

func (s *SubmitterSuite) TestCooldownSuppressesRepeat() {
	s.submitter.Handle(input(1, "email"))
	s.now = s.now.Add(time.Second)
	s.submitter.Handle(input(1, "email"))

	s.Len(s.dispatched(), 1, "second send inside the window suppressed")

	s.now = s.now.Add(2001 * time.Millisecond)
	s.submitter.Handle(input(1, "email"))
	s.Len(s.dispatched(), 1, "3001ms after the first send passes again")
}

func (s *SubmitterSuite) TestCooldownKindsIndependent() {
	// Same element first reports payment, then (after the field changes)
	// PII; the payment stamp must not block the PII send.
	s.submitter.Handle(input(1, "card"))
	s.submitter.Handle(input(1, "email"))

	envs := s.dispatched()
	s.Require().Len(envs, 2)
	s.Equal(event.TypePayment, envs[0].Type)
	s.Equal(event.TypePII, envs[1].Type)
}

func (s *SubmitterSuite) TestNotRunningDropsSilently() {
	s.state.Apply(monitor.StatePaused)

	s.submitter.Handle(input(1, "email"))

	s.Empty(s.dispatched())
}

func (s *SubmitterSuite) TestClickFilters() {
	anchor := &page.Anchor{ID: 2, Href: "/files/report.pdf"}

	s.Run("untrusted click ignored", func() {
		s.submitter.Handle(page.Interaction{
			Type: page.InteractionClick, Target: anchor,
			PageURL: "https://example.com", Trusted: false,
		})
		s.Empty(s.dispatched())
	})

	s.Run("secondary button ignored", func() {
		s.submitter.Handle(page.Interaction{
			Type: page.InteractionClick, Target: anchor,
			PageURL: "https://example.com", Trusted: true, Button: 2,
		})
		s.Empty(s.dispatched())
	})

	s.Run("trusted primary click dispatches download", func() {
		s.submitter.Handle(page.Interaction{
			Type: page.InteractionClick, Target: anchor,
			PageURL: "https://example.com", Trusted: true,
		})
		envs := s.dispatched()
		s.Require().Len(envs, 1)
		s.Equal(event.TypeDownload, envs[0].Type)
		s.Equal("report.pdf", envs[0].Meta.Filename)
		s.Equal(event.TriggerFileExt, envs[0].Meta.Trigger)
	})
}

func (s *SubmitterSuite) TestPaymentButtonClick() {
	s.submitter.Handle(page.Interaction{
		Type:    page.InteractionClick,
		Target:  &page.Button{ID: 3, Text: "Checkout"},
		PageURL: "https://shop.example",
		Trusted: true,
	})

	envs := s.dispatched()
	s.Require().Len(envs, 1)
	s.Equal(event.TypePayment, envs[0].Type)
	s.Equal(event.TriggerButton, envs[0].Meta.Trigger)
	s.Equal("Checkout", envs[0].Meta.ButtonText)
}

func (s *SubmitterSuite) TestLinkStyledPaymentButton() {
	s.submitter.Handle(page.Interaction{
		Type:    page.InteractionClick,
		Target:  &page.Anchor{ID: 4, Href: "/checkout", Text: "Buy now"},
		PageURL: "https://shop.example",
		Trusted: true,
	})

	envs := s.dispatched()
	s.Require().Len(envs, 1)
	s.Equal(event.TypePayment, envs[0].Type)
}

func (s *SubmitterSuite) TestFragmentAnchorNeverChecked() {
	s.submitter.Handle(page.Interaction{
		Type:    page.InteractionClick,
		Target:  &page.Anchor{ID: 5, Href: "#pay", Text: "Buy now"},
		PageURL: "https://shop.example",
		Trusted: true,
	})

	s.Empty(s.dispatched(), "fragment targets are ignored outright")
}

func (s *SubmitterSuite) TestFormSubmit() {
	form := &page.Form{
		ID: 9,
		Controls: []*page.Input{
			{ID: 10, Name: "card-number"},
			{ID: 11, Name: "cvv"},
		},
	}

	s.submitter.Handle(page.Interaction{
		Type:    page.InteractionSubmit,
		Target:  form,
		PageURL: "https://shop.example/pay",
		Trusted: true,
	})

	envs := s.dispatched()
	s.Require().Len(envs, 1)
	s.Equal(event.TypePayment, envs[0].Type)
	s.Equal(event.TriggerFormSubmit, envs[0].Meta.Trigger)
	s.ElementsMatch([]string{"card", "cvv"}, envs[0].Meta.Fields)

	// The form element itself gates repeats.
	s.submitter.Handle(page.Interaction{
		Type:    page.InteractionSubmit,
		Target:  form,
		PageURL: "https://shop.example/pay",
		Trusted: true,
	})
	s.Empty(s.dispatched())
}

func (s *SubmitterSuite) TestFullChannelDrops() {
	out := make(chan event.Envelope) // unbuffered, nobody reading
	gate := detect.NewGate(detect.CooldownWindow)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	submitter := New(monitor.NewCache(), gate, out, WithLogger(logger))

	// Must not block.
	submitter.Handle(input(1, "email"))
}
