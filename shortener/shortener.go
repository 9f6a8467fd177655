package shortener

import (
	"context"
	"errors"
	"net/url"
	"time"

	"go.uber.org/zap"

	"goshortlink/codegen"
	"goshortlink/models"
	"goshortlink/repository"
)

var (
	ErrInvalidURL     = errors.New("invalid URL format")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExhausted = errors.New("token has no remaining uses")
	ErrTokenExpired   = errors.New("token has expired")
	ErrNotFound       = errors.New("short link not found")
	ErrLinkExpired    = errors.New("short link has expired")
)

// Ownership says who a short link belongs to: nobody (public) or exactly one
// company. Keeping it a closed value instead of passing a nullable id around
// makes the two cases explicit.
type Ownership struct {
	companyID uint
	owned     bool
}

func PublicLink() Ownership { return Ownership{} }

func OwnedBy(companyID uint) Ownership {
	return Ownership{companyID: companyID, owned: true}
}

func (o Ownership) CompanyID() (uint, bool) { return o.companyID, o.owned }

// column maps the variant onto the nullable foreign key column.
func (o Ownership) column() *uint {
	if !o.owned {
		return nil
	}
	id := o.companyID
	return &id
}

// ClickInfo carries what the redirect handler knows about a visitor.
type ClickInfo struct {
	IP         string
	UserAgent  string
	Latitude   *float64
	Longitude  *float64
	MarkerType string
}

type Service struct {
	urls       repository.UrlStore
	tokens     repository.TokenStore
	codes      *codegen.Generator
	logger     *zap.Logger
	defaultTTL time.Duration
}

func New(urls repository.UrlStore, tokens repository.TokenStore, codes *codegen.Generator, logger *zap.Logger, defaultTTL time.Duration) *Service {
	return &Service{
		urls:       urls,
		tokens:     tokens,
		codes:      codes,
		logger:     logger,
		defaultTTL: defaultTTL,
	}
}

// Shorten validates the target, persists a url under a fresh short code and,
// when a company token is supplied, redeems one use. A supplied token must
// exist, have uses left and not be expired, or the whole operation fails.
// Redemption happens only after the insert succeeds, so a request that fails
// never burns a use; redemption itself is an atomic conditional decrement,
// and losing the race on the token's last use undoes the insert.
func (s *Service) Shorten(ctx context.Context, longURL, tokenValue string, expiresAt *time.Time) (*models.Url, error) {
	parsed, err := url.ParseRequestURI(longURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, ErrInvalidURL
	}

	owner := PublicLink()
	var token *models.Token
	if tokenValue != "" {
		token, err = s.tokens.GetByValue(ctx, tokenValue)
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		if err != nil {
			return nil, err
		}
		if token.RemainingUses <= 0 {
			return nil, ErrTokenExhausted
		}
		if token.ExpiresAt != nil && token.ExpiresAt.Before(time.Now()) {
			return nil, ErrTokenExpired
		}
		owner = OwnedBy(token.CompanyID)
	}

	if expiresAt == nil {
		fallback := time.Now().Add(s.defaultTTL)
		expiresAt = &fallback
		s.logger.Debug("no expiry supplied, using default", zap.Time("expiresAt", fallback))
	}

	created, err := s.insertWithFreshCode(ctx, longURL, owner, expiresAt)
	if err != nil {
		return nil, err
	}

	if token != nil {
		if err := s.tokens.Redeem(ctx, token.ID); err != nil {
			// The insert already landed; take it back out so a failed
			// redemption leaves no partial state behind.
			if delErr := s.urls.Delete(ctx, created.ID); delErr != nil {
				s.logger.Error("undo insert after failed redemption",
					zap.Uint("id", created.ID), zap.Error(delErr))
			}
			if errors.Is(err, repository.ErrNoRemainingUses) {
				return nil, ErrTokenExhausted
			}
			return nil, err
		}
	}

	s.logger.Info("short url created",
		zap.String("code", created.ShortCode),
		zap.Uint("id", created.ID))
	return created, nil
}

// insertWithFreshCode draws a code and inserts the url. The generator checks
// the store before handing out a code, but two concurrent requests can still
// draw the same one. The unique index catches that; retry once with a fresh
// draw.
func (s *Service) insertWithFreshCode(ctx context.Context, longURL string, owner Ownership, expiresAt *time.Time) (*models.Url, error) {
	for attempt := 0; ; attempt++ {
		code, err := s.codes.Generate(ctx)
		if err != nil {
			return nil, err
		}
		created := &models.Url{
			LongUrl:   longURL,
			ShortCode: code,
			CompanyID: owner.column(),
			CreatedAt: time.Now().UTC(),
			ExpiresAt: expiresAt,
		}
		err = s.urls.Create(ctx, created)
		if errors.Is(err, repository.ErrDuplicateKey) && attempt == 0 {
			s.logger.Warn("short code raced by concurrent insert, retrying",
				zap.String("code", code))
			continue
		}
		if err != nil {
			return nil, err
		}
		return created, nil
	}
}

// Resolve looks up a short code. Expired links answer ErrLinkExpired and
// must not have a click recorded.
func (s *Service) Resolve(ctx context.Context, code string) (*models.Url, error) {
	if err := s.codes.Validate(code); err != nil {
		return nil, ErrNotFound
	}
	link, err := s.urls.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if link.ExpiresAt != nil && link.ExpiresAt.Before(time.Now()) {
		return nil, ErrLinkExpired
	}
	return link, nil
}

// RecordClick bumps the counter and appends the click row. Both writes must
// land before the caller redirects.
func (s *Service) RecordClick(ctx context.Context, link *models.Url, info ClickInfo) error {
	if err := s.urls.IncrementClicks(ctx, link.ID); err != nil {
		return err
	}
	click := &models.UrlClick{
		UrlID:      link.ID,
		IpAddress:  info.IP,
		UserAgent:  info.UserAgent,
		ClickedAt:  time.Now().UTC(),
		Latitude:   info.Latitude,
		Longitude:  info.Longitude,
		MarkerType: info.MarkerType,
	}
	return s.urls.RecordClick(ctx, click)
}
