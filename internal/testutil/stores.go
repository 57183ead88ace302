// Package testutil holds in-memory fakes of the stores and the geocoder
// for service and handler tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/astravedam-backend/internal/models"
	"github.com/AnshRaj112/astravedam-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChartStore is an in-memory services.ChartStore. Set the Err fields to
// make the matching call fail.
type ChartStore struct {
	mu     sync.Mutex
	charts []models.ChartRecord

	InsertErr       error
	ClearPrimaryErr error
	ListErr         error
	// AssignErr is returned by AssignAccount once AssignErrAfter calls went through.
	AssignErr      error
	AssignErrAfter int
	assignCalls    int
}

func NewChartStore() *ChartStore {
	return &ChartStore{}
}

func (s *ChartStore) ClearPrimary(ctx context.Context, owner models.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClearPrimaryErr != nil {
		return s.ClearPrimaryErr
	}
	for i := range s.charts {
		if ownedBy(&s.charts[i], owner) {
			s.charts[i].IsPrimary = false
		}
	}
	return nil
}

func (s *ChartStore) Insert(ctx context.Context, chart *models.ChartRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertErr != nil {
		return s.InsertErr
	}
	if chart.ID.IsZero() {
		chart.ID = primitive.NewObjectID()
	}
	s.charts = append(s.charts, *chart)
	return nil
}

func (s *ChartStore) List(ctx context.Context, filter services.ChartFilter) ([]models.ChartRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var out []models.ChartRecord
	for _, c := range s.charts {
		if matches(c, filter) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return strings.Compare(out[i].ID.Hex(), out[j].ID.Hex()) > 0
	})
	return out, nil
}

func (s *ChartStore) FindUnclaimed(ctx context.Context, anonymousID string) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []primitive.ObjectID
	for _, c := range s.charts {
		if c.AnonymousID() == anonymousID && c.OwnerUserID == nil {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (s *ChartStore) AssignAccount(ctx context.Context, chartID, accountID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AssignErr != nil && s.assignCalls >= s.AssignErrAfter {
		return false, s.AssignErr
	}
	s.assignCalls++
	for i := range s.charts {
		c := &s.charts[i]
		if c.ID == chartID && c.OwnerUserID == nil {
			id := accountID
			c.OwnerUserID = &id
			c.UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}

// All returns a copy of every stored chart in insertion order.
func (s *ChartStore) All() []models.ChartRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChartRecord(nil), s.charts...)
}

// Get returns the chart with id, or nil.
func (s *ChartStore) Get(id primitive.ObjectID) *models.ChartRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.charts {
		if c.ID == id {
			cp := c
			return &cp
		}
	}
	return nil
}

// Put stores a chart as-is, for seeding legacy or linked records.
func (s *ChartStore) Put(chart models.ChartRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charts = append(s.charts, chart)
}

func ownedBy(c *models.ChartRecord, owner models.Owner) bool {
	switch o := owner.(type) {
	case models.AccountOwner:
		return c.OwnerUserID != nil && *c.OwnerUserID == o.AccountID
	case models.AnonymousOwner:
		return c.AnonymousID() == o.ClientID
	}
	return false
}

func matches(c models.ChartRecord, f services.ChartFilter) bool {
	if f.AccountID != nil {
		if c.OwnerUserID != nil && *c.OwnerUserID == *f.AccountID {
			return true
		}
		if c.AnonymousID() == f.AccountID.Hex() {
			return true
		}
	}
	return f.AnonymousID != "" && c.AnonymousID() == f.AnonymousID
}

// AccountStore is an in-memory services.AccountStore.
type AccountStore struct {
	mu       sync.Mutex
	accounts map[primitive.ObjectID]*models.Account

	FindErr       error
	InsertErr     error
	SetPrimaryErr error
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[primitive.ObjectID]*models.Account)}
}

// Add stores a copy of acc and returns it.
func (s *AccountStore) Add(acc *models.Account) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc.ID.IsZero() {
		acc.ID = primitive.NewObjectID()
	}
	cp := *acc
	s.accounts[acc.ID] = &cp
	return acc
}

func (s *AccountStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return s.find(func(a *models.Account) bool { return a.ID == id })
}

func (s *AccountStore) FindByGoogleID(ctx context.Context, googleID string) (*models.Account, error) {
	return s.find(func(a *models.Account) bool { return a.GoogleID == googleID })
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.find(func(a *models.Account) bool { return a.Email == email })
}

func (s *AccountStore) find(pred func(*models.Account) bool) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	for _, a := range s.accounts {
		if pred(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, services.ErrAccountNotFound
}

func (s *AccountStore) Insert(ctx context.Context, acc *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertErr != nil {
		return s.InsertErr
	}
	cp := *acc
	s.accounts[acc.ID] = &cp
	return nil
}

func (s *AccountStore) RecordLogin(ctx context.Context, id primitive.ObjectID, googleID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return services.ErrAccountNotFound
	}
	a.LastLogin = at
	a.UpdatedAt = at
	if googleID != "" {
		a.GoogleID = googleID
	}
	return nil
}

func (s *AccountStore) SetPrimaryChart(ctx context.Context, accountID, chartID primitive.ObjectID) error {
	if s.SetPrimaryErr != nil {
		return s.SetPrimaryErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return services.ErrAccountNotFound
	}
	id := chartID
	a.PrimaryChartID = &id
	return nil
}

// Count returns the number of stored accounts.
func (s *AccountStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}
