package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

// Mode selects the transition graph
type Mode string

const (
	// ModeMinimal allows new -> contacted -> converted, with lost as an exit.
	// interested, trial and negotiating are storable but unreachable.
	ModeMinimal Mode = "minimal"
	// ModeExtended walks the full sales funnel
	ModeExtended Mode = "extended"
)

// ParseMode parses a lifecycle mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMinimal, "":
		return ModeMinimal, nil
	case ModeExtended:
		return ModeExtended, nil
	default:
		return "", fmt.Errorf("unknown lifecycle mode %q (expected minimal or extended)", s)
	}
}

type graph map[models.LeadStatus][]models.LeadStatus

var graphs = map[Mode]graph{
	ModeMinimal: {
		models.StatusNew:       {models.StatusContacted, models.StatusLost},
		models.StatusContacted: {models.StatusContacted, models.StatusConverted, models.StatusLost},
	},
	ModeExtended: {
		models.StatusNew:         {models.StatusContacted, models.StatusLost},
		models.StatusContacted:   {models.StatusContacted, models.StatusInterested, models.StatusLost},
		models.StatusInterested:  {models.StatusTrial, models.StatusLost},
		models.StatusTrial:       {models.StatusNegotiating, models.StatusLost},
		models.StatusNegotiating: {models.StatusConverted, models.StatusLost},
	},
}

// Request is a single transition attempt.
// Subscriptions holds the lead's existing subscriptions plus any being
// created in the same operation; conversion needs one of them to qualify.
type Request struct {
	To            models.LeadStatus
	Subscriptions []models.Subscription
}

// Machine guards lead status changes. It holds no lead state and is safe
// for concurrent use.
type Machine struct {
	mode  Mode
	edges graph
	now   func() time.Time
}

// NewMachine creates a new Machine for mode; unknown modes fall back to minimal
func NewMachine(mode Mode) *Machine {
	edges, ok := graphs[mode]
	if !ok {
		mode = ModeMinimal
		edges = graphs[ModeMinimal]
	}
	return &Machine{mode: mode, edges: edges, now: time.Now}
}

// WithClock returns a copy of m that reads the current time from now
func (m *Machine) WithClock(now func() time.Time) *Machine {
	c := *m
	c.now = now
	return &c
}

// Mode returns the active graph
func (m *Machine) Mode() Mode {
	return m.mode
}

// Allowed lists the statuses reachable from from in one step
func (m *Machine) Allowed(from models.LeadStatus) []models.LeadStatus {
	next := m.edges[from]
	out := make([]models.LeadStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether the graph has an edge from -> to
func (m *Machine) CanTransition(from, to models.LeadStatus) bool {
	for _, s := range m.edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Apply validates req against lead and returns the updated lead.
// On error the returned lead is the unchanged input.
func (m *Machine) Apply(lead models.Lead, req Request) (models.Lead, error) {
	if !req.To.Valid() {
		verr := models.NewValidationError("transition")
		verr.Add("status", fmt.Sprintf("unknown status %q", req.To))
		return lead, verr
	}

	from := lead.Status
	if from.IsTerminal() {
		return lead, &models.InvalidTransitionError{
			LeadID: lead.ID, From: from, To: req.To,
			Reason: fmt.Sprintf("%s is a terminal state", from),
		}
	}
	if !m.CanTransition(from, req.To) {
		return lead, &models.InvalidTransitionError{
			LeadID: lead.ID, From: from, To: req.To,
			Reason: fmt.Sprintf("not allowed in %s lifecycle", m.mode),
		}
	}
	if req.To == models.StatusConverted && !hasQualifyingSubscription(lead.ID, req.Subscriptions) {
		return lead, &models.InvalidTransitionError{
			LeadID: lead.ID, From: from, To: req.To,
			Reason: "conversion requires an active subscription for the lead",
		}
	}

	now := m.now().UTC()
	today := models.DateOf(now)

	out := lead.Clone()
	out.Status = req.To
	out.LastUpdated = now
	switch req.To {
	case models.StatusContacted:
		out.LastContact = &today
	case models.StatusConverted:
		if out.ConversionDate == nil {
			out.ConversionDate = &today
		}
	}
	return out, nil
}

func hasQualifyingSubscription(leadID string, subs []models.Subscription) bool {
	for _, s := range subs {
		if s.LeadID == leadID && s.Active {
			return true
		}
	}
	return false
}
