package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/astravedam-backend/internal/astro"
	"github.com/AnshRaj112/astravedam-backend/internal/geocode"
	"github.com/AnshRaj112/astravedam-backend/internal/logging"
	"github.com/AnshRaj112/astravedam-backend/internal/metrics"
	"github.com/AnshRaj112/astravedam-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultPersonName = "User"

// Listing sources.
const (
	SourceRegistered = "registered"
	SourceAnonymous  = "anonymous"
	SourceMerged     = "merged"
)

var birthDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-1-2",
	"2006/1/2",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	time.RFC1123,
}

// SubmitInput is a birth-data submission. Latitude and Longitude skip
// geocoding when both are set.
type SubmitInput struct {
	Name         string
	PersonName   string
	Date         string
	Time         string
	Location     string
	SetAsPrimary bool

	Latitude         *float64
	Longitude        *float64
	City             string
	Country          string
	FormattedAddress string
}

type SubmitResult struct {
	Chart    *models.ChartRecord
	Location geocode.Location
}

type ListResult struct {
	Charts []models.ChartRecord
	Source string
}

// ChartService owns chart ownership: who a new chart belongs to, which
// chart is primary, what a caller may list and how anonymous charts are
// claimed by an account.
type ChartService struct {
	charts     ChartStore
	accounts   AccountStore
	geocoder   geocode.Geocoder
	calculator astro.Calculator
	tx         Transactor
	now        func() time.Time
}

type ChartServiceConfig struct {
	Charts     ChartStore
	Accounts   AccountStore
	Geocoder   geocode.Geocoder
	Calculator astro.Calculator
	// Transactor is optional. Without it the primary reset and the insert
	// are separate writes.
	Transactor Transactor
}

func NewChartService(cfg ChartServiceConfig) *ChartService {
	calc := cfg.Calculator
	if calc == nil {
		calc = astro.MockCalculator{}
	}
	return &ChartService{
		charts:     cfg.Charts,
		accounts:   cfg.Accounts,
		geocoder:   cfg.Geocoder,
		calculator: calc,
		tx:         cfg.Transactor,
		now:        time.Now,
	}
}

func (s *ChartService) Submit(ctx context.Context, id Identity, in SubmitInput) (*SubmitResult, error) {
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.Location = strings.TrimSpace(in.Location)
	if in.Date == "" || in.Time == "" || in.Location == "" {
		return nil, fmt.Errorf("%w: missing required fields: date, time, location", ErrValidation)
	}
	birthDate, err := parseBirthDate(in.Date)
	if err != nil {
		return nil, err
	}

	loc, err := s.resolveLocation(ctx, in)
	if err != nil {
		return nil, err
	}

	chart := s.calculator.Calculate(astro.BirthData{
		Name:     in.Name,
		Date:     in.Date,
		Time:     in.Time,
		Location: in.Location,
	})

	owner := ResolveOwner(id)
	now := s.now().UTC()
	rec := &models.ChartRecord{
		ID:               primitive.NewObjectID(),
		PersonName:       orDefault(in.PersonName, defaultPersonName),
		Name:             orDefault(in.Name, defaultPersonName),
		BirthDate:        birthDate,
		BirthTime:        in.Time,
		Location:         in.Location,
		Latitude:         loc.Latitude,
		Longitude:        loc.Longitude,
		Timezone:         orDefault(loc.Timezone, geocode.DefaultTimezone),
		FormattedAddress: loc.FormattedAddress,
		Country:          loc.Country,
		City:             loc.City,
		PlaceID:          loc.PlaceID,
		ChartData:        chart,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	rec.AssignOwner(owner)
	// A chart without an owner key has no siblings, so it is its own primary.
	rec.IsPrimary = !owner.HasKey() || in.SetAsPrimary

	err = s.inTransaction(ctx, func(ctx context.Context) error {
		if owner.HasKey() && in.SetAsPrimary {
			if err := s.charts.ClearPrimary(ctx, owner); err != nil {
				return fmt.Errorf("reset primary: %w", err)
			}
		}
		if err := s.charts.Insert(ctx, rec); err != nil {
			return fmt.Errorf("insert chart: %w", err)
		}
		if acc, ok := owner.(models.AccountOwner); ok && rec.IsPrimary && s.accounts != nil {
			if err := s.accounts.SetPrimaryChart(ctx, acc.AccountID, rec.ID); err != nil {
				if s.tx != nil {
					return fmt.Errorf("set account primary: %w", err)
				}
				// The chart is already stored as primary; only the account pointer is stale.
				logging.Ctx(ctx).Warn().Err(err).
					Str("account_id", acc.AccountID.Hex()).
					Str("chart_id", rec.ID.Hex()).
					Msg("Failed to update account primary chart")
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	metrics.RecordChartSubmitted(ownerLabel(owner))
	logging.Ctx(ctx).Info().
		Str("chart_id", rec.ID.Hex()).
		Str("owner", ownerLabel(owner)).
		Bool("primary", rec.IsPrimary).
		Msg("Chart saved")

	return &SubmitResult{Chart: rec, Location: *loc}, nil
}

// List applies the visibility rules: an account sees its own charts, an
// anonymous caller sees charts under its id, and an account that also sends
// a different anonymous id sees both at once.
func (s *ChartService) List(ctx context.Context, id Identity) (*ListResult, error) {
	anon := strings.TrimSpace(id.AnonymousID)

	var filter ChartFilter
	var source string
	switch {
	case id.Account != nil && (anon == "" || anon == id.Account.ID.Hex()):
		accID := id.Account.ID
		filter = ChartFilter{AccountID: &accID}
		source = SourceRegistered
	case id.Account == nil && anon != "":
		filter = ChartFilter{AnonymousID: anon}
		source = SourceAnonymous
	case id.Account != nil:
		accID := id.Account.ID
		filter = ChartFilter{AccountID: &accID, AnonymousID: anon}
		source = SourceMerged
	default:
		return nil, ErrIdentifierRequired
	}

	charts, err := s.charts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: list charts: %w", ErrPersistence, err)
	}
	if charts == nil {
		charts = []models.ChartRecord{}
	}
	return &ListResult{Charts: charts, Source: source}, nil
}

// LinkAnonymous claims every unclaimed chart stored under anonymousID for
// the account and returns how many were claimed. Charts claimed before a
// failure stay claimed.
func (s *ChartService) LinkAnonymous(ctx context.Context, account *models.Account, anonymousID string) (int, error) {
	if account == nil {
		return 0, ErrAuthorizationRequired
	}
	anonymousID = strings.TrimSpace(anonymousID)
	if anonymousID == "" {
		return 0, fmt.Errorf("%w: anonymousUserId is required", ErrValidation)
	}

	ids, err := s.charts.FindUnclaimed(ctx, anonymousID)
	if err != nil {
		return 0, fmt.Errorf("%w: find charts: %w", ErrPersistence, err)
	}

	linked := 0
	for _, chartID := range ids {
		ok, err := s.charts.AssignAccount(ctx, chartID, account.ID)
		if err != nil {
			metrics.RecordChartsLinked(linked)
			return linked, fmt.Errorf("%w: link chart %s: %w", ErrPersistence, chartID.Hex(), err)
		}
		if ok {
			linked++
		}
	}

	metrics.RecordChartsLinked(linked)
	logging.Ctx(ctx).Info().
		Str("account_id", account.ID.Hex()).
		Int("linked", linked).
		Msg("Anonymous charts linked")
	return linked, nil
}

func (s *ChartService) resolveLocation(ctx context.Context, in SubmitInput) (*geocode.Location, error) {
	if in.Latitude != nil && in.Longitude != nil {
		return &geocode.Location{
			Latitude:         *in.Latitude,
			Longitude:        *in.Longitude,
			FormattedAddress: orDefault(in.FormattedAddress, in.Location),
			City:             in.City,
			Country:          in.Country,
			Timezone:         geocode.DefaultTimezone,
		}, nil
	}
	if s.geocoder == nil {
		return nil, fmt.Errorf("%w: %w", ErrLocationNotFound, geocode.ErrUnavailable)
	}
	loc, err := s.geocoder.Geocode(ctx, in.Location)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("location", in.Location).Msg("Geocoding failed")
		return nil, fmt.Errorf("%w: %w", ErrLocationNotFound, err)
	}
	return loc, nil
}

func (s *ChartService) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.RunInTransaction(ctx, fn)
}

func parseBirthDate(v string) (time.Time, error) {
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, v)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
