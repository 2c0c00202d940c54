package models

import "time"

// Snapshot is a point-in-time, read-only copy of every entity.
// The KPI aggregator works exclusively on snapshots.
type Snapshot struct {
	Leads             map[string]Lead             `json:"leads" cbor:"leads"`
	Staff             map[string]Staff            `json:"staff" cbor:"staff"`
	Clubs             map[string]Club             `json:"clubs" cbor:"clubs"`
	SubscriptionTypes map[string]SubscriptionType `json:"subscription_types" cbor:"subscription_types"`
	Subscriptions     map[string]Subscription     `json:"subscriptions" cbor:"subscriptions"`
	TakenAt           time.Time                   `json:"taken_at" cbor:"taken_at"`
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Leads:             make(map[string]Lead),
		Staff:             make(map[string]Staff),
		Clubs:             make(map[string]Club),
		SubscriptionTypes: make(map[string]SubscriptionType),
		Subscriptions:     make(map[string]Subscription),
	}
}

// AddLead stores a copy of l
func (s *Snapshot) AddLead(l Lead) { s.Leads[l.ID] = l.Clone() }

// AddStaff stores a copy of st
func (s *Snapshot) AddStaff(st Staff) { s.Staff[st.ID] = st.Clone() }

// AddClub stores a copy of c
func (s *Snapshot) AddClub(c Club) { s.Clubs[c.ID] = c.Clone() }

// AddSubscriptionType stores t
func (s *Snapshot) AddSubscriptionType(t SubscriptionType) { s.SubscriptionTypes[t.ID] = t }

// AddSubscription stores a copy of sub
func (s *Snapshot) AddSubscription(sub Subscription) { s.Subscriptions[sub.ID] = sub.Clone() }

// Clone returns a deep copy that shares no mutable state with s
func (s *Snapshot) Clone() *Snapshot {
	out := NewSnapshot()
	out.TakenAt = s.TakenAt
	for _, l := range s.Leads {
		out.AddLead(l)
	}
	for _, st := range s.Staff {
		out.AddStaff(st)
	}
	for _, c := range s.Clubs {
		out.AddClub(c)
	}
	for _, t := range s.SubscriptionTypes {
		out.AddSubscriptionType(t)
	}
	for _, sub := range s.Subscriptions {
		out.AddSubscription(sub)
	}
	return out
}

// SubscriptionsForLead returns the lead's subscriptions in no particular order
func (s *Snapshot) SubscriptionsForLead(leadID string) []Subscription {
	var subs []Subscription
	for _, sub := range s.Subscriptions {
		if sub.LeadID == leadID {
			subs = append(subs, sub)
		}
	}
	return subs
}
