package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"goshortlink/models"
)

func NewPGRepo(port int, host, dbuser, dbname, password string) (Repository, error) {
	args := fmt.Sprintf("host=%s port=%v user=%s dbname=%s password=%s sslmode=disable TimeZone=UTC",
		host, port, dbuser, dbname, password)
	db, err := gorm.Open(postgres.Open(args), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.Company{},
		&models.Token{},
		&models.Url{},
		&models.UrlClick{},
		&models.User{},
	); err != nil {
		return nil, err
	}
	return &pgRepository{db: db}, nil
}

// NewWithDB builds a repository over an already-opened dialector. Used by
// tests (no AutoMigrate).
func NewWithDB(dial gorm.Dialector, cfg gorm.Config) (Repository, error) {
	db, err := gorm.Open(dial, &cfg)
	if err != nil {
		return nil, err
	}
	return &pgRepository{db: db}, nil
}

type pgRepository struct {
	db *gorm.DB
}

func (p *pgRepository) Urls() UrlStore          { return &pgUrlStore{db: p.db} }
func (p *pgRepository) Tokens() TokenStore      { return &pgTokenStore{db: p.db} }
func (p *pgRepository) Companies() CompanyStore { return &pgCompanyStore{db: p.db} }
func (p *pgRepository) Users() UserStore        { return &pgUserStore{db: p.db} }

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	default:
		return err
	}
}

type pgUrlStore struct {
	db *gorm.DB
}

func (s *pgUrlStore) Create(ctx context.Context, url *models.Url) error {
	return translate(s.db.WithContext(ctx).Create(url).Error)
}

func (s *pgUrlStore) GetByID(ctx context.Context, id uint) (*models.Url, error) {
	var url models.Url
	err := s.db.WithContext(ctx).Preload("Clicks").Take(&url, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &url, nil
}

func (s *pgUrlStore) GetByCode(ctx context.Context, code string) (*models.Url, error) {
	var url models.Url
	err := s.db.WithContext(ctx).Where("short_code = ?", code).Take(&url).Error
	if err != nil {
		return nil, translate(err)
	}
	return &url, nil
}

func (s *pgUrlStore) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Url{}).
		Where("short_code = ?", code).
		Count(&count).Error
	return count > 0, translate(err)
}

func (s *pgUrlStore) ByCompany(ctx context.Context, companyID uint) ([]models.Url, error) {
	var urls []models.Url
	err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Find(&urls).Error
	return urls, translate(err)
}

func (s *pgUrlStore) UpdateExpiresAt(ctx context.Context, id uint, expiresAt *time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.Url{}).
		Where("id = ?", id).
		Update("expires_at", expiresAt)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected != 1 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *pgUrlStore) IncrementClicks(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.Url{}).
		Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected != 1 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *pgUrlStore) RecordClick(ctx context.Context, click *models.UrlClick) error {
	if click.Latitude != nil {
		rounded := roundCoordinate(*click.Latitude)
		click.Latitude = &rounded
	}
	if click.Longitude != nil {
		rounded := roundCoordinate(*click.Longitude)
		click.Longitude = &rounded
	}
	if click.ClickedAt.IsZero() {
		click.ClickedAt = time.Now().UTC()
	}
	return translate(s.db.WithContext(ctx).Create(click).Error)
}

func (s *pgUrlStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("url_id = ?", id).Delete(&models.UrlClick{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Delete(&models.Url{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected != 1 {
			return ErrRecordNotFound
		}
		return nil
	})
}

// Stored coordinates keep 6 decimal places, about 0.1m of precision.
func roundCoordinate(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

type pgTokenStore struct {
	db *gorm.DB
}

func (s *pgTokenStore) Create(ctx context.Context, token *models.Token) error {
	return translate(s.db.WithContext(ctx).Create(token).Error)
}

func (s *pgTokenStore) GetByID(ctx context.Context, id uint) (*models.Token, error) {
	var token models.Token
	err := s.db.WithContext(ctx).Take(&token, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (s *pgTokenStore) GetByValue(ctx context.Context, value string) (*models.Token, error) {
	var token models.Token
	err := s.db.WithContext(ctx).Where("value = ?", value).Take(&token).Error
	if err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (s *pgTokenStore) ByCompany(ctx context.Context, companyID uint) ([]models.Token, error) {
	var tokens []models.Token
	err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Find(&tokens).Error
	return tokens, translate(err)
}

func (s *pgTokenStore) SetRemainingUses(ctx context.Context, id uint, uses int) error {
	res := s.db.WithContext(ctx).
		Model(&models.Token{}).
		Where("id = ?", id).
		UpdateColumn("remaining_uses", uses)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected != 1 {
		return ErrRecordNotFound
	}
	return nil
}

// Redeem is a single conditional decrement so a token's last use cannot be
// double-spent by concurrent requests.
func (s *pgTokenStore) Redeem(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.Token{}).
		Where("id = ? AND remaining_uses > 0", id).
		UpdateColumn("remaining_uses", gorm.Expr("remaining_uses - ?", 1))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoRemainingUses
	}
	return nil
}

func (s *pgTokenStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Token{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected != 1 {
		return ErrRecordNotFound
	}
	return nil
}

type pgCompanyStore struct {
	db *gorm.DB
}

func (s *pgCompanyStore) Create(ctx context.Context, company *models.Company, tokens []models.Token) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(company).Error; err != nil {
			return translate(err)
		}
		for i := range tokens {
			tokens[i].CompanyID = company.ID
		}
		if len(tokens) > 0 {
			if err := tx.Create(&tokens).Error; err != nil {
				return translate(err)
			}
		}
		company.Tokens = tokens
		return nil
	})
}

func (s *pgCompanyStore) GetAll(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	err := s.db.WithContext(ctx).
		Preload("Tokens").
		Preload("Urls").
		Find(&companies).Error
	return companies, translate(err)
}

func (s *pgCompanyStore) GetByIDs(ctx context.Context, ids []uint) ([]models.Company, error) {
	if len(ids) == 0 {
		return []models.Company{}, nil
	}
	var companies []models.Company
	err := s.db.WithContext(ctx).
		Preload("Tokens").
		Preload("Urls").
		Where("id IN ?", ids).
		Find(&companies).Error
	return companies, translate(err)
}

func (s *pgCompanyStore) GetByID(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	err := s.db.WithContext(ctx).
		Preload("Tokens").
		Preload("Urls").
		Take(&company, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &company, nil
}

// Delete cascades in application code: clicks of the company's urls, then the
// urls, then the tokens, then the company row itself, all in one transaction.
func (s *pgCompanyStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var urlIDs []uint
		if err := tx.Model(&models.Url{}).
			Where("company_id = ?", id).
			Pluck("id", &urlIDs).Error; err != nil {
			return translate(err)
		}
		if len(urlIDs) > 0 {
			if err := tx.Where("url_id IN ?", urlIDs).Delete(&models.UrlClick{}).Error; err != nil {
				return translate(err)
			}
		}
		if err := tx.Where("company_id = ?", id).Delete(&models.Url{}).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("company_id = ?", id).Delete(&models.Token{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Delete(&models.Company{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected != 1 {
			return ErrRecordNotFound
		}
		return nil
	})
}

type pgUserStore struct {
	db *gorm.DB
}

func (s *pgUserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *pgUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *pgUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Companies").Where("id = ?", id).Take(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *pgUserStore) All(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Preload("Companies").Find(&users).Error
	return users, translate(err)
}

func (s *pgUserStore) UpdateRole(ctx context.Context, id uuid.UUID, roleID int) error {
	return s.updateColumn(ctx, id, "role_id", roleID)
}

func (s *pgUserStore) UpdateStatus(ctx context.Context, id uuid.UUID, active bool) error {
	return s.updateColumn(ctx, id, "is_active", active)
}

func (s *pgUserStore) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.updateColumn(ctx, id, "last_login_at", at)
}

func (s *pgUserStore) updateColumn(ctx context.Context, id uuid.UUID, column string, value interface{}) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn(column, value)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected != 1 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *pgUserStore) ReplaceCompanies(ctx context.Context, id uuid.UUID, companyIDs []uint) error {
	user := models.User{ID: id}
	assoc := s.db.WithContext(ctx).Model(&user).Association("Companies")
	if len(companyIDs) == 0 {
		return translate(assoc.Clear())
	}
	var companies []models.Company
	if err := s.db.WithContext(ctx).Where("id IN ?", companyIDs).Find(&companies).Error; err != nil {
		return translate(err)
	}
	return translate(assoc.Replace(&companies))
}

func (s *pgUserStore) CompanyIDs(ctx context.Context, id uuid.UUID) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Table("user_companies").
		Where("user_id = ?", id).
		Pluck("company_id", &ids).Error
	return ids, translate(err)
}

func (s *pgUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_companies WHERE user_id = ?", id).Error; err != nil {
			return translate(err)
		}
		res := tx.Where("id = ?", id).Delete(&models.User{})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected != 1 {
			return ErrRecordNotFound
		}
		return nil
	})
}
