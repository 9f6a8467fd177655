package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"goshortlink/models"
)

// Unimplemented stores are meant to be embedded by test doubles that only
// care about a few methods.

type UnimplementedUrlStore struct{}

func (UnimplementedUrlStore) Create(ctx context.Context, url *models.Url) error { return ErrNotImplemented }
func (UnimplementedUrlStore) GetByID(ctx context.Context, id uint) (*models.Url, error) {
	return nil, ErrNotImplemented
}
func (UnimplementedUrlStore) GetByCode(ctx context.Context, code string) (*models.Url, error) {
	return nil, ErrNotImplemented
}
func (UnimplementedUrlStore) CodeExists(ctx context.Context, code string) (bool, error) {
	return false, ErrNotImplemented
}
func (UnimplementedUrlStore) ByCompany(ctx context.Context, companyID uint) ([]models.Url, error) {
	return nil, ErrNotImplemented
}
func (UnimplementedUrlStore) UpdateExpiresAt(ctx context.Context, id uint, expiresAt *time.Time) error {
	return ErrNotImplemented
}
func (UnimplementedUrlStore) IncrementClicks(ctx context.Context, id uint) error {
	return ErrNotImplemented
}
func (UnimplementedUrlStore) RecordClick(ctx context.Context, click *models.UrlClick) error {
	return ErrNotImplemented
}
func (UnimplementedUrlStore) Delete(ctx context.Context, id uint) error { return ErrNotImplemented }

type UnimplementedTokenStore struct{}

func (UnimplementedTokenStore) Create(ctx context.Context, token *models.Token) error {
	return ErrNotImplemented
}
func (UnimplementedTokenStore) GetByID(ctx context.Context, id uint) (*models.Token, error) {
	return nil, ErrNotImplemented
}
func (UnimplementedTokenStore) GetByValue(ctx context.Context, value string) (*models.Token, error) {
	return nil, ErrNotImplemented
}
func (UnimplementedTokenStore) ByCompany(ctx context.Context, companyID uint) ([]models.Token, error) {
	return nil, ErrNotImplemented
}
func (UnimplementedTokenStore) SetRemainingUses(ctx context.Context, id uint, uses int) error {
	return ErrNotImplemented
}
func (UnimplementedTokenStore) Redeem(ctx context.Context, id uint) error { return ErrNotImplemented }
func (UnimplementedTokenStore) Delete(ctx context.Context, id uint) error { return ErrNotImplemented }

type UnimplementedCompanyStore struct{}

func (UnimplementedCompanyStore) Create(ctx context.Context, company *models.Company, tokens []models.Token) error {
	return ErrNotImplemented
}
func (UnimplementedCompanyStore) GetAll(ctx context.Context) ([]models.Company, error) {
	return nil, ErrNotImplemented
}
func (UnimplementedCompanyStore) GetByIDs(ctx context.Context, ids []uint) ([]models.Company, error) {
	return nil, ErrNotImplemented
}
func (UnimplementedCompanyStore) GetByID(ctx context.Context, id uint) (*models.Company, error) {
	return nil, ErrNotImplemented
}
func (UnimplementedCompanyStore) Delete(ctx context.Context, id uint) error {
	return ErrNotImplemented
}

type UnimplementedUserStore struct{}

func (UnimplementedUserStore) Create(ctx context.Context, user *models.User) error {
	return ErrNotImplemented
}
func (UnimplementedUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, ErrNotImplemented
}
func (UnimplementedUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return nil, ErrNotImplemented
}
func (UnimplementedUserStore) All(ctx context.Context) ([]models.User, error) {
	return nil, ErrNotImplemented
}
func (UnimplementedUserStore) UpdateRole(ctx context.Context, id uuid.UUID, roleID int) error {
	return ErrNotImplemented
}
func (UnimplementedUserStore) UpdateStatus(ctx context.Context, id uuid.UUID, active bool) error {
	return ErrNotImplemented
}
func (UnimplementedUserStore) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return ErrNotImplemented
}
func (UnimplementedUserStore) ReplaceCompanies(ctx context.Context, id uuid.UUID, companyIDs []uint) error {
	return ErrNotImplemented
}
func (UnimplementedUserStore) CompanyIDs(ctx context.Context, id uuid.UUID) ([]uint, error) {
	return nil, ErrNotImplemented
}
func (UnimplementedUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	return ErrNotImplemented
}
