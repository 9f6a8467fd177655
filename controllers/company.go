package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"goshortlink/auth"
	"goshortlink/models"
	"goshortlink/repository"
)

type CompanyController struct {
	Companies repository.CompanyStore
	Tokens    repository.TokenStore
	Users     repository.UserStore
	Log       *zap.Logger

	TokenUses int
	TokenTTL  time.Duration
}

type createCompanyReqData struct {
	CompanyName string `json:"companyName"`
	TokenCount  int    `json:"tokenCount"`
}

// sanitizeName keeps lowercase letters and digits only, so the derived token
// values stay URL- and copy-paste-safe.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "company"
	}
	return b.String()
}

// Create registers a company and seeds its redeemable tokens in one
// transaction. Token values are derived from the sanitized company name.
func (cc CompanyController) Create(c *gin.Context) {
	var req createCompanyReqData
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}
	if req.CompanyName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "company name is required"})
		return
	}
	if req.TokenCount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "token count cannot be negative"})
		return
	}

	sanitized := sanitizeName(req.CompanyName)
	expiresAt := time.Now().Add(cc.TokenTTL)
	tokens := make([]models.Token, req.TokenCount)
	for i := range tokens {
		tokens[i] = models.Token{
			Value:         fmt.Sprintf("%stoken%d", sanitized, i+1),
			RemainingUses: cc.TokenUses,
			ExpiresAt:     &expiresAt,
		}
	}

	company := &models.Company{Name: req.CompanyName}
	err := cc.Companies.Create(c.Request.Context(), company, tokens)
	if errors.Is(err, repository.ErrDuplicateKey) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "a company with a colliding token already exists"})
		return
	}
	if err != nil {
		cc.Log.Error("create company failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	cc.Log.Info("company created",
		zap.Uint("id", company.ID),
		zap.Int("tokens", len(tokens)))
	c.JSON(http.StatusCreated, company)
}

// List answers the companies the caller may see: every company for roles
// holding ViewAllCompanies, otherwise only the caller's assigned ones.
func (cc CompanyController) List(c *gin.Context) {
	claims, ok := auth.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}

	var (
		companies []models.Company
		err       error
	)
	if auth.Allowed(claims.RoleID, auth.ViewAllCompanies) {
		companies, err = cc.Companies.GetAll(c.Request.Context())
	} else {
		companies, err = cc.visibleCompanies(c, claims)
	}
	if err != nil {
		cc.Log.Error("list companies failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	if companies == nil {
		companies = []models.Company{}
	}
	c.JSON(http.StatusOK, companies)
}

func (cc CompanyController) visibleCompanies(c *gin.Context, claims *auth.Claims) ([]models.Company, error) {
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	ids, err := cc.Users.CompanyIDs(c.Request.Context(), userID)
	if err != nil {
		return nil, err
	}
	return cc.Companies.GetByIDs(c.Request.Context(), ids)
}

// Get answers one company. Callers without ViewAllCompanies only see
// companies they are assigned to.
func (cc CompanyController) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	claims, ok := auth.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}
	if !auth.Allowed(claims.RoleID, auth.ViewAllCompanies) {
		member, err := cc.isMember(c, claims, id)
		if err != nil {
			cc.Log.Error("check company membership failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
			return
		}
		if !member {
			c.JSON(http.StatusForbidden, gin.H{"message": "insufficient permissions"})
			return
		}
	}

	company, err := cc.Companies.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "company not found"})
		return
	}
	if err != nil {
		cc.Log.Error("get company failed", zap.Uint("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, company)
}

func (cc CompanyController) isMember(c *gin.Context, claims *auth.Claims, companyID uint) (bool, error) {
	userID, err := claims.UserID()
	if err != nil {
		return false, err
	}
	ids, err := cc.Users.CompanyIDs(c.Request.Context(), userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == companyID {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes a company along with its tokens, urls and click history.
func (cc CompanyController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := cc.Companies.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "company not found"})
		return
	}
	if err != nil {
		cc.Log.Error("delete company failed", zap.Uint("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}

type updateTokenUsesReqData struct {
	RemainingUses int `json:"remainingUses"`
}

// UpdateTokenUses overwrites a token's remaining use count, e.g. to top up
// or revoke a customer's quota.
func (cc CompanyController) UpdateTokenUses(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateTokenUsesReqData
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}
	if req.RemainingUses < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "remaining uses cannot be negative"})
		return
	}
	err := cc.Tokens.SetRemainingUses(c.Request.Context(), id, req.RemainingUses)
	if errors.Is(err, repository.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "token not found"})
		return
	}
	if err != nil {
		cc.Log.Error("update token uses failed", zap.Uint("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (cc CompanyController) DeleteToken(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := cc.Tokens.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "token not found"})
		return
	}
	if err != nil {
		cc.Log.Error("delete token failed", zap.Uint("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}
