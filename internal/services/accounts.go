package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/astravedam-backend/internal/logging"
	"github.com/AnshRaj112/astravedam-backend/internal/metrics"
	"github.com/AnshRaj112/astravedam-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoogleProfile is the verified identity returned by Google.
type GoogleProfile struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type AccountService struct {
	accounts AccountStore
	now      func() time.Time
}

func NewAccountService(accounts AccountStore) *AccountService {
	return &AccountService{accounts: accounts, now: time.Now}
}

// Get loads an account; a missing account is ErrAccountNotFound.
func (s *AccountService) Get(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return acc, nil
}

// SignInWithGoogle finds the account for a Google profile, by Google id
// first and then by email, or creates one.
func (s *AccountService) SignInWithGoogle(ctx context.Context, p GoogleProfile) (*models.Account, error) {
	if p.Subject == "" {
		return nil, fmt.Errorf("%w: google profile has no subject", ErrValidation)
	}
	email := strings.ToLower(strings.TrimSpace(p.Email))
	now := s.now().UTC()
	log := logging.Ctx(ctx)

	acc, err := s.accounts.FindByGoogleID(ctx, p.Subject)
	switch {
	case err == nil:
		if err := s.accounts.RecordLogin(ctx, acc.ID, "", now); err != nil {
			return nil, s.fail(err)
		}
		acc.LastLogin = now
		metrics.RecordSignIn("existing")
		log.Info().Str("account_id", acc.ID.Hex()).Msg("Existing user logged in via Google")
		return acc, nil
	case !errors.Is(err, ErrAccountNotFound):
		return nil, s.fail(err)
	}

	if email != "" {
		acc, err = s.accounts.FindByEmail(ctx, email)
		switch {
		case err == nil:
			if err := s.accounts.RecordLogin(ctx, acc.ID, p.Subject, now); err != nil {
				return nil, s.fail(err)
			}
			acc.GoogleID = p.Subject
			acc.LastLogin = now
			metrics.RecordSignIn("linked_email")
			log.Info().Str("account_id", acc.ID.Hex()).Msg("Google id attached to existing account")
			return acc, nil
		case !errors.Is(err, ErrAccountNotFound):
			return nil, s.fail(err)
		}
	}

	acc = models.NewGoogleAccount(p.Subject, email, orDefault(p.Name, defaultPersonName), p.Picture, now)
	if err := s.accounts.Insert(ctx, acc); err != nil {
		return nil, s.fail(err)
	}
	metrics.RecordSignIn("created")
	log.Info().Str("account_id", acc.ID.Hex()).Msg("New user created via Google")
	return acc, nil
}

func (s *AccountService) fail(err error) error {
	metrics.RecordSignIn("failure")
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
