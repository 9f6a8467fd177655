package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"goshortlink/codegen"
	"goshortlink/models"
	"goshortlink/repository"
	"goshortlink/shortener"
)

type stubUrlStore struct {
	repository.UnimplementedUrlStore
	byCode  map[string]*models.Url
	clicks  []models.UrlClick
	deleted []uint
}

func newStubUrlStore(urls ...*models.Url) *stubUrlStore {
	s := &stubUrlStore{byCode: make(map[string]*models.Url)}
	for _, u := range urls {
		s.byCode[u.ShortCode] = u
	}
	return s
}

func (s *stubUrlStore) Create(ctx context.Context, url *models.Url) error {
	url.ID = uint(len(s.byCode) + 1)
	s.byCode[url.ShortCode] = url
	return nil
}

func (s *stubUrlStore) CodeExists(ctx context.Context, code string) (bool, error) {
	_, ok := s.byCode[code]
	return ok, nil
}

func (s *stubUrlStore) GetByCode(ctx context.Context, code string) (*models.Url, error) {
	url, ok := s.byCode[code]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return url, nil
}

func (s *stubUrlStore) GetByID(ctx context.Context, id uint) (*models.Url, error) {
	for _, url := range s.byCode {
		if url.ID == id {
			return url, nil
		}
	}
	return nil, repository.ErrRecordNotFound
}

func (s *stubUrlStore) IncrementClicks(ctx context.Context, id uint) error {
	for _, url := range s.byCode {
		if url.ID == id {
			url.ClickCount++
			return nil
		}
	}
	return repository.ErrRecordNotFound
}

func (s *stubUrlStore) RecordClick(ctx context.Context, click *models.UrlClick) error {
	s.clicks = append(s.clicks, *click)
	return nil
}

func (s *stubUrlStore) Delete(ctx context.Context, id uint) error {
	for code, url := range s.byCode {
		if url.ID == id {
			delete(s.byCode, code)
			s.deleted = append(s.deleted, id)
			return nil
		}
	}
	return repository.ErrRecordNotFound
}

type stubTokenStore struct {
	repository.UnimplementedTokenStore
	tokens map[string]*models.Token
}

func (s *stubTokenStore) GetByValue(ctx context.Context, value string) (*models.Token, error) {
	t, ok := s.tokens[value]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return t, nil
}

func (s *stubTokenStore) Redeem(ctx context.Context, id uint) error {
	for _, t := range s.tokens {
		if t.ID == id && t.RemainingUses > 0 {
			t.RemainingUses--
			return nil
		}
	}
	return repository.ErrNoRemainingUses
}

func newUrlController(urls *stubUrlStore, tokens *stubTokenStore, requireGeo bool) UrlController {
	if tokens == nil {
		tokens = &stubTokenStore{tokens: map[string]*models.Token{}}
	}
	logger := zap.NewNop()
	svc := shortener.New(urls, tokens, codegen.New(urls, 6, logger), logger, 365*24*time.Hour)
	return UrlController{
		Shortener:      svc,
		Urls:           urls,
		Log:            logger,
		RedirectOrigin: "http://short.test",
		RequireGeo:     requireGeo,
	}
}

func TestUrlController_Create(t *testing.T) {
	tests := []struct {
		name               string
		reqJSON            string
		expectedStatusCode int
	}{
		{
			"valid url",
			`{"longUrl": "https://example.com/some/page"}`,
			http.StatusCreated,
		},
		{
			"invalid url",
			`{"longUrl": "foobar"}`,
			http.StatusBadRequest,
		},
		{
			"empty url",
			`{"longUrl": ""}`,
			http.StatusBadRequest,
		},
		{
			"malformed body",
			`{"longUrl": `,
			http.StatusBadRequest,
		},
		{
			"unknown token",
			`{"longUrl": "https://example.com", "token": "nosuchtoken"}`,
			http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(r)
			ctx.Request = httptest.NewRequest(http.MethodPost, "/api/url", strings.NewReader(tt.reqJSON))

			u := newUrlController(newStubUrlStore(), nil, false)
			u.Create(ctx)
			assert.Equal(t, tt.expectedStatusCode, r.Code)
		})
	}
}

func TestUrlController_Create_response_shape(t *testing.T) {
	r := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(r)
	ctx.Request = httptest.NewRequest(http.MethodPost, "/api/url",
		strings.NewReader(`{"longUrl": "https://example.com"}`))

	u := newUrlController(newStubUrlStore(), nil, false)
	u.Create(ctx)
	assert.Equal(t, http.StatusCreated, r.Code)

	var got urlRespData
	assert.NoError(t, json.Unmarshal(r.Body.Bytes(), &got))
	assert.Equal(t, "https://example.com", got.LongUrl)
	assert.Len(t, got.ShortUrl, 6)
	assert.Equal(t, fmt.Sprintf("http://short.test/%s", got.ShortUrl), got.Link)
	assert.Nil(t, got.CompanyID)
	assert.NotNil(t, got.ExpiresAt)
}

func TestUrlController_Redirect(t *testing.T) {
	yesterday := time.Now().Add(-time.Hour)
	live := &models.Url{ID: 1, LongUrl: "https://example.com", ShortCode: "abc123"}
	dead := &models.Url{ID: 2, LongUrl: "https://example.com/old", ShortCode: "dead99", ExpiresAt: &yesterday}

	tests := []struct {
		name               string
		code               string
		query              string
		requireGeo         bool
		expectedStatusCode int
	}{
		{
			"redirect ok",
			"abc123",
			"",
			false,
			http.StatusFound,
		},
		{
			"unknown code",
			"zzzzzz",
			"",
			false,
			http.StatusNotFound,
		},
		{
			"malformed code",
			"nope",
			"",
			false,
			http.StatusNotFound,
		},
		{
			"expired link",
			"dead99",
			"",
			false,
			http.StatusGone,
		},
		{
			"geolocation required but absent",
			"abc123",
			"",
			true,
			http.StatusForbidden,
		},
		{
			"geolocation required and present",
			"abc123",
			"?lat=41.0082376&lng=28.9783589",
			true,
			http.StatusFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(r)
			ctx.Request = httptest.NewRequest(http.MethodGet, "/"+tt.code+tt.query, nil)
			ctx.Params = []gin.Param{{Key: "code", Value: tt.code}}

			u := newUrlController(newStubUrlStore(live, dead), nil, tt.requireGeo)
			u.Redirect(ctx)
			assert.Equal(t, tt.expectedStatusCode, r.Code)
		})
	}
}

func TestUrlController_Redirect_records_click(t *testing.T) {
	urls := newStubUrlStore(&models.Url{ID: 1, LongUrl: "https://example.com", ShortCode: "abc123"})

	r := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(r)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/abc123?lat=41.0082376&lng=28.9783589", nil)
	ctx.Request.Header.Set("User-Agent", "test-agent")
	ctx.Params = []gin.Param{{Key: "code", Value: "abc123"}}

	u := newUrlController(urls, nil, false)
	u.Redirect(ctx)

	assert.Equal(t, http.StatusFound, r.Code)
	assert.Equal(t, "https://example.com", r.Header().Get("Location"))
	assert.Equal(t, 1, urls.byCode["abc123"].ClickCount)
	if assert.Len(t, urls.clicks, 1) {
		click := urls.clicks[0]
		assert.Equal(t, uint(1), click.UrlID)
		assert.Equal(t, "test-agent", click.UserAgent)
		assert.Equal(t, models.MarkerGPS, click.MarkerType)
		assert.NotNil(t, click.Latitude)
	}
}

func TestUrlController_Redirect_without_coordinates_marks_ip(t *testing.T) {
	urls := newStubUrlStore(&models.Url{ID: 1, LongUrl: "https://example.com", ShortCode: "abc123"})

	r := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(r)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/abc123", nil)
	ctx.Params = []gin.Param{{Key: "code", Value: "abc123"}}

	u := newUrlController(urls, nil, false)
	u.Redirect(ctx)

	assert.Equal(t, http.StatusFound, r.Code)
	if assert.Len(t, urls.clicks, 1) {
		assert.Equal(t, models.MarkerIP, urls.clicks[0].MarkerType)
		assert.Nil(t, urls.clicks[0].Latitude)
	}
}

func TestUrlController_Details(t *testing.T) {
	urls := newStubUrlStore(&models.Url{
		ID: 1, LongUrl: "https://example.com", ShortCode: "abc123", ClickCount: 2,
		Clicks: []models.UrlClick{{ID: 1, UrlID: 1}, {ID: 2, UrlID: 1}},
	})
	u := newUrlController(urls, nil, false)

	r := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(r)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/details/1", nil)
	ctx.Params = []gin.Param{{Key: "id", Value: "1"}}
	u.Details(ctx)

	assert.Equal(t, http.StatusOK, r.Code)
	var got struct {
		urlRespData
		Clicks []models.UrlClick `json:"clicks"`
	}
	assert.NoError(t, json.Unmarshal(r.Body.Bytes(), &got))
	assert.Equal(t, 2, got.ClickCount)
	assert.Len(t, got.Clicks, 2)

	r = httptest.NewRecorder()
	ctx, _ = gin.CreateTestContext(r)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/details/9", nil)
	ctx.Params = []gin.Param{{Key: "id", Value: "9"}}
	u.Details(ctx)
	assert.Equal(t, http.StatusNotFound, r.Code)
}

func TestUrlController_Delete(t *testing.T) {
	urls := newStubUrlStore(&models.Url{ID: 1, LongUrl: "https://example.com", ShortCode: "abc123"})
	u := newUrlController(urls, nil, false)

	r := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(r)
	ctx.Request = httptest.NewRequest(http.MethodDelete, "/1", nil)
	ctx.Params = []gin.Param{{Key: "id", Value: "1"}}
	u.Delete(ctx)
	ctx.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, r.Code)
	assert.Equal(t, []uint{1}, urls.deleted)

	r = httptest.NewRecorder()
	ctx, _ = gin.CreateTestContext(r)
	ctx.Request = httptest.NewRequest(http.MethodDelete, "/1", nil)
	ctx.Params = []gin.Param{{Key: "id", Value: "1"}}
	u.Delete(ctx)
	assert.Equal(t, http.StatusNotFound, r.Code)
}
