package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/shopspring/decimal"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

// MemoryStore keeps every entity in process memory. A single RWMutex
// guards all maps; ApplyLeadChange holds the write lock for the whole unit.
type MemoryStore struct {
	mu   sync.RWMutex
	data *models.Snapshot
	now  func() time.Time
}

// NewMemoryStore creates a new empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: models.NewSnapshot(), now: time.Now}
}

var snapshotEncMode = func() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor enc mode: %v", err))
	}
	return em
}()

var snapshotDecMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cbor dec mode: %v", err))
	}
	return dm
}()

// LoadMemoryStore creates a MemoryStore from a CBOR snapshot file.
// A missing file yields an empty store.
func LoadMemoryStore(path string) (*MemoryStore, error) {
	s := NewMemoryStore()
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	snap := models.NewSnapshot()
	if err := snapshotDecMode.Unmarshal(raw, snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot file: %w", err)
	}
	s.data = normalizeSnapshot(snap)
	return s, nil
}

// SaveSnapshot writes the current state to path as CBOR, replacing the file atomically
func (s *MemoryStore) SaveSnapshot(ctx context.Context, path string) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	raw, err := snapshotEncMode.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}

// normalizeSnapshot fills maps a decoded file left nil
func normalizeSnapshot(snap *models.Snapshot) *models.Snapshot {
	out := models.NewSnapshot()
	for _, l := range snap.Leads {
		out.AddLead(l)
	}
	for _, st := range snap.Staff {
		out.AddStaff(st)
	}
	for _, c := range snap.Clubs {
		out.AddClub(c)
	}
	for _, t := range snap.SubscriptionTypes {
		out.AddSubscriptionType(t)
	}
	for _, sub := range snap.Subscriptions {
		out.AddSubscription(sub)
	}
	return out
}

// Clubs

func (s *MemoryStore) CreateClub(ctx context.Context, club *models.Club) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.Clubs[club.ID]; exists {
		return duplicateID("club")
	}
	s.data.AddClub(*club)
	return nil
}

func (s *MemoryStore) GetClub(ctx context.Context, id string) (*models.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.data.Clubs[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "club", ID: id}
	}
	out := c.Clone()
	return &out, nil
}

func (s *MemoryStore) UpdateClub(ctx context.Context, club *models.Club) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Clubs[club.ID]; !ok {
		return &models.NotFoundError{Entity: "club", ID: club.ID}
	}
	s.data.AddClub(*club)
	return nil
}

func (s *MemoryStore) ListClubs(ctx context.Context) ([]models.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Club, 0, len(s.data.Clubs))
	for _, c := range s.data.Clubs {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) SetClubRevenue(ctx context.Context, clubID string, revenue decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.Clubs[clubID]
	if !ok {
		return &models.NotFoundError{Entity: "club", ID: clubID}
	}
	c.Revenue = revenue
	c.UpdatedAt = s.now().UTC()
	s.data.Clubs[clubID] = c
	return nil
}

// Staff

func (s *MemoryStore) CreateStaff(ctx context.Context, staff *models.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.Staff[staff.ID]; exists {
		return duplicateID("staff")
	}
	s.data.AddStaff(*staff)
	return nil
}

func (s *MemoryStore) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data.Staff[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "staff", ID: id}
	}
	out := st.Clone()
	return &out, nil
}

func (s *MemoryStore) UpdateStaff(ctx context.Context, staff *models.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Staff[staff.ID]; !ok {
		return &models.NotFoundError{Entity: "staff", ID: staff.ID}
	}
	s.data.AddStaff(*staff)
	return nil
}

func (s *MemoryStore) ListStaff(ctx context.Context) ([]models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Staff, 0, len(s.data.Staff))
	for _, st := range s.data.Staff {
		out = append(out, st.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

// Subscription types

func (s *MemoryStore) CreateSubscriptionType(ctx context.Context, st *models.SubscriptionType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.SubscriptionTypes[st.ID]; exists {
		return duplicateID("subscription_type")
	}
	s.data.AddSubscriptionType(*st)
	return nil
}

func (s *MemoryStore) GetSubscriptionType(ctx context.Context, id string) (*models.SubscriptionType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data.SubscriptionTypes[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "subscription_type", ID: id}
	}
	return &st, nil
}

func (s *MemoryStore) UpdateSubscriptionType(ctx context.Context, st *models.SubscriptionType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.SubscriptionTypes[st.ID]; !ok {
		return &models.NotFoundError{Entity: "subscription_type", ID: st.ID}
	}
	s.data.AddSubscriptionType(*st)
	return nil
}

func (s *MemoryStore) ListSubscriptionTypes(ctx context.Context) ([]models.SubscriptionType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SubscriptionType, 0, len(s.data.SubscriptionTypes))
	for _, st := range s.data.SubscriptionTypes {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Leads

func (s *MemoryStore) CreateLead(ctx context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.Leads[lead.ID]; exists {
		return duplicateID("lead")
	}
	s.data.AddLead(*lead)
	return nil
}

func (s *MemoryStore) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.data.Leads[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "lead", ID: id}
	}
	out := l.Clone()
	return &out, nil
}

func (s *MemoryStore) ListLeads(ctx context.Context, filter LeadFilter) ([]models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Lead, 0)
	for _, l := range s.data.Leads {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.StaffID != "" && (l.StaffID == nil || *l.StaffID != filter.StaffID) {
			continue
		}
		if filter.ClubID != "" && (l.ClubID == nil || *l.ClubID != filter.ClubID) {
			continue
		}
		out = append(out, l.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreationDate.Equal(out[j].CreationDate) {
			return out[i].CreationDate.After(out[j].CreationDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ApplyLeadChange(ctx context.Context, leadID string, fn LeadChangeFunc) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.data.Leads[leadID]
	if !ok {
		return nil, &models.NotFoundError{Entity: "lead", ID: leadID}
	}
	subs := make([]models.Subscription, 0)
	for _, sub := range s.data.SubscriptionsForLead(leadID) {
		subs = append(subs, sub.Clone())
	}

	change, err := fn(current.Clone(), subs)
	if err != nil {
		return nil, err
	}
	if err := checkChange(leadID, change, subs, func(id string) bool {
		_, exists := s.data.Subscriptions[id]
		return exists
	}); err != nil {
		return nil, err
	}

	// Validation passed; apply every part together
	if change.Lead != nil {
		s.data.AddLead(*change.Lead)
	}
	if change.Insert != nil {
		s.data.AddSubscription(*change.Insert)
	}
	if change.Update != nil {
		s.data.AddSubscription(*change.Update)
	}

	out := s.data.Leads[leadID].Clone()
	return &out, nil
}

// checkChange validates a LeadChange before any part of it is written
func checkChange(leadID string, change LeadChange, subs []models.Subscription, subExists func(id string) bool) error {
	if change.Lead != nil && change.Lead.ID != leadID {
		return fmt.Errorf("lead change for %s carries lead %s", leadID, change.Lead.ID)
	}
	if change.Insert != nil {
		if change.Insert.LeadID != leadID {
			return fmt.Errorf("subscription insert for lead %s references lead %s", leadID, change.Insert.LeadID)
		}
		if subExists(change.Insert.ID) {
			return duplicateID("subscription")
		}
		if activeConflict(subs, change.Insert) {
			return oneActiveViolation()
		}
	}
	if change.Update != nil {
		if change.Update.LeadID != leadID {
			return fmt.Errorf("subscription update for lead %s references lead %s", leadID, change.Update.LeadID)
		}
		if !subExists(change.Update.ID) {
			return &models.NotFoundError{Entity: "subscription", ID: change.Update.ID}
		}
		if activeConflict(subs, change.Update) {
			return oneActiveViolation()
		}
	}
	return nil
}

// Subscriptions

func (s *MemoryStore) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.data.Subscriptions[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "subscription", ID: id}
	}
	out := sub.Clone()
	return &out, nil
}

func (s *MemoryStore) ListSubscriptions(ctx context.Context, filter SubscriptionFilter) ([]models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Subscription, 0)
	for _, sub := range s.data.Subscriptions {
		if filter.LeadID != "" && sub.LeadID != filter.LeadID {
			continue
		}
		if filter.ActiveOnly && !sub.Active {
			continue
		}
		out = append(out, sub.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ExpireSubscriptions(ctx context.Context, asOf time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	now := s.now().UTC()
	for id, sub := range s.data.Subscriptions {
		if sub.Active && !sub.EndDate.After(asOf) {
			sub.Active = false
			sub.UpdatedAt = now
			s.data.Subscriptions[id] = sub
			changed++
		}
	}
	return changed, nil
}

// Snapshot

func (s *MemoryStore) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.data.Clone()
	snap.TakenAt = s.now().UTC()
	return snap, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}
