package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"goshortlink/models"
	"goshortlink/repository"
	"goshortlink/shortener"
)

type createUrlReqData struct {
	LongUrl   string     `json:"longUrl"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type urlRespData struct {
	ID         uint       `json:"id"`
	LongUrl    string     `json:"longUrl"`
	ShortUrl   string     `json:"shortUrl"`
	Link       string     `json:"link"`
	CompanyID  *uint      `json:"companyId"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	ClickCount int        `json:"clickCount"`
}

type UrlController struct {
	Shortener      *shortener.Service
	Urls           repository.UrlStore
	Log            *zap.Logger
	RedirectOrigin string
	RequireGeo     bool
}

func (u UrlController) respData(url *models.Url) urlRespData {
	return urlRespData{
		ID:         url.ID,
		LongUrl:    url.LongUrl,
		ShortUrl:   url.ShortCode,
		Link:       fmt.Sprintf("%s/%s", u.RedirectOrigin, url.ShortCode),
		CompanyID:  url.CompanyID,
		CreatedAt:  url.CreatedAt,
		ExpiresAt:  url.ExpiresAt,
		ClickCount: url.ClickCount,
	}
}

// Create registers a new short link. An empty token makes a public link; a
// non-empty one must be a live company token and burns one use.
func (u UrlController) Create(c *gin.Context) {
	var req createUrlReqData
	if err := c.BindJSON(&req); err != nil {
		u.Log.Warn("invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}

	created, err := u.Shortener.Shorten(c.Request.Context(), req.LongUrl, req.Token, req.ExpiresAt)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, u.respData(created))
	case errors.Is(err, shortener.ErrInvalidURL),
		errors.Is(err, shortener.ErrInvalidToken),
		errors.Is(err, shortener.ErrTokenExhausted),
		errors.Is(err, shortener.ErrTokenExpired):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		u.Log.Error("create short url failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}

// Redirect resolves a short code and sends the visitor on, recording the
// click first. Coordinates arrive as query parameters when the client shared
// its location; otherwise the click is marked as IP-derived.
func (u UrlController) Redirect(c *gin.Context) {
	code := c.Param("code")

	lat, latOK := parseCoordinate(c.Query("lat"))
	lng, lngOK := parseCoordinate(c.Query("lng"))
	hasCoords := latOK && lngOK

	if u.RequireGeo && !hasCoords {
		c.String(http.StatusForbidden, "location permission required")
		return
	}

	link, err := u.Shortener.Resolve(c.Request.Context(), code)
	switch {
	case errors.Is(err, shortener.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "short link not found"})
		return
	case errors.Is(err, shortener.ErrLinkExpired):
		c.String(http.StatusGone, "this short link has expired")
		return
	case err != nil:
		u.Log.Error("resolve short url failed", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}

	info := shortener.ClickInfo{
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		MarkerType: models.MarkerIP,
	}
	if hasCoords {
		info.Latitude = &lat
		info.Longitude = &lng
		info.MarkerType = models.MarkerGPS
	}
	// An explicit marker type wins, e.g. coordinates a client derived from
	// its own IP lookup rather than a GPS fix.
	if marker := c.Query("markerType"); marker == models.MarkerGPS || marker == models.MarkerIP {
		info.MarkerType = marker
	}
	if err := u.Shortener.RecordClick(c.Request.Context(), link, info); err != nil {
		// The visitor still gets their redirect; losing one analytics row
		// is better than a broken link.
		u.Log.Error("record click failed", zap.String("code", code), zap.Error(err))
	}

	c.Redirect(http.StatusFound, link.LongUrl)
}

// Details answers the full analytics view of one short link, clicks included.
func (u UrlController) Details(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	link, err := u.Urls.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "short link not found"})
		return
	}
	if err != nil {
		u.Log.Error("get url details failed", zap.Uint("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	resp := struct {
		urlRespData
		Clicks []models.UrlClick `json:"clicks"`
	}{u.respData(link), link.Clicks}
	if resp.Clicks == nil {
		resp.Clicks = []models.UrlClick{}
	}
	c.JSON(http.StatusOK, resp)
}

func (u UrlController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := u.Urls.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "short link not found"})
		return
	}
	if err != nil {
		u.Log.Error("delete url failed", zap.Uint("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}

type updateExpiresReqData struct {
	ExpiresAt *time.Time `json:"expiresAt"`
}

// UpdateExpires sets or clears a link's expiry. A null expiresAt makes the
// link permanent.
func (u UrlController) UpdateExpires(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateExpiresReqData
	if err := c.BindJSON(&req); err != nil {
		u.Log.Warn("invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}
	err := u.Urls.UpdateExpiresAt(c.Request.Context(), id, req.ExpiresAt)
	if errors.Is(err, repository.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "short link not found"})
		return
	}
	if err != nil {
		u.Log.Error("update url expiry failed", zap.Uint("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func parseCoordinate(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
