package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"goshortlink/models"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateKey reports a unique-index conflict (e.g. a short code
	// raced in by a concurrent insert).
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNoRemainingUses reports that a conditional token redemption matched
	// no rows, i.e. the token was already exhausted.
	ErrNoRemainingUses = errors.New("token has no remaining uses")
	ErrNotImplemented  = errors.New("not implemented")
)

type UrlStore interface {
	Create(ctx context.Context, url *models.Url) error
	GetByID(ctx context.Context, id uint) (*models.Url, error)
	GetByCode(ctx context.Context, code string) (*models.Url, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ByCompany(ctx context.Context, companyID uint) ([]models.Url, error)
	UpdateExpiresAt(ctx context.Context, id uint, expiresAt *time.Time) error
	IncrementClicks(ctx context.Context, id uint) error
	RecordClick(ctx context.Context, click *models.UrlClick) error
	Delete(ctx context.Context, id uint) error
}

type TokenStore interface {
	Create(ctx context.Context, token *models.Token) error
	GetByID(ctx context.Context, id uint) (*models.Token, error)
	GetByValue(ctx context.Context, value string) (*models.Token, error)
	ByCompany(ctx context.Context, companyID uint) ([]models.Token, error)
	SetRemainingUses(ctx context.Context, id uint, uses int) error
	// Redeem decrements the token's remaining uses by one, only if any are
	// left. Returns ErrNoRemainingUses when the decrement matched no row.
	Redeem(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

type CompanyStore interface {
	// Create inserts the company and its seeded tokens in one transaction.
	// CompanyID on the tokens is filled in after the company row exists.
	Create(ctx context.Context, company *models.Company, tokens []models.Token) error
	GetAll(ctx context.Context) ([]models.Company, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Company, error)
	GetByID(ctx context.Context, id uint) (*models.Company, error)
	// Delete removes the company together with its tokens, urls and the
	// urls' clicks.
	Delete(ctx context.Context, id uint) error
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	All(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, roleID int) error
	UpdateStatus(ctx context.Context, id uuid.UUID, active bool) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	ReplaceCompanies(ctx context.Context, id uuid.UUID, companyIDs []uint) error
	CompanyIDs(ctx context.Context, id uuid.UUID) ([]uint, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Repository interface {
	Urls() UrlStore
	Tokens() TokenStore
	Companies() CompanyStore
	Users() UserStore
}
