package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"goshortlink/auth"
	"goshortlink/config"
	"goshortlink/controllers"
	"goshortlink/repository"
	"goshortlink/shortener"
)

const (
	defaultTimeout = 30 * time.Second
)

// NewRouter wires every endpoint. urls is the (possibly cache-decorated)
// UrlStore the redirect path reads from; repo holds the raw stores for
// everything else.
func NewRouter(
	repo repository.Repository,
	urls repository.UrlStore,
	short *shortener.Service,
	jwt *auth.Manager,
	logger *zap.Logger,
	env config.Env,
) *gin.Engine {
	router := gin.Default()
	router.HandleMethodNotAllowed = true

	health := new(controllers.HealthController)
	router.GET("/health", health.Status)

	url := controllers.UrlController{
		Shortener:      short,
		Urls:           urls,
		Log:            logger,
		RedirectOrigin: env.RedirectOrigin,
		RequireGeo:     env.RequireGeolocation,
	}
	router.GET("/:code", withTimeout(url.Redirect, defaultTimeout))
	router.GET("/details/:id", withTimeout(url.Details, defaultTimeout))
	router.DELETE("/:id", withTimeout(url.Delete, defaultTimeout))
	router.PUT("/:id/expires", withTimeout(url.UpdateExpires, defaultTimeout))

	// Short link creation is gated by company tokens, not bearer auth, so
	// anonymous clients holding a token can mint links.
	router.POST("/api/url", withTimeout(url.Create, defaultTimeout))

	authCtl := controllers.AuthController{
		Users: repo.Users(),
		JWT:   jwt,
		Log:   logger,
	}
	router.POST("/api/auth/register", withTimeout(authCtl.Register, defaultTimeout))
	router.POST("/api/auth/login", withTimeout(authCtl.Login, defaultTimeout))

	company := controllers.CompanyController{
		Companies: repo.Companies(),
		Tokens:    repo.Tokens(),
		Users:     repo.Users(),
		Log:       logger,
		TokenUses: env.TokenDefaultUses,
		TokenTTL:  time.Duration(env.TokenTTLDays) * 24 * time.Hour,
	}
	companyGroup := router.Group("/api/company", jwt.Middleware())
	companyGroup.GET("", withTimeout(company.List, defaultTimeout))
	companyGroup.GET("/:id", withTimeout(company.Get, defaultTimeout))
	companyGroup.POST("", auth.Require(auth.ManageCompanies), withTimeout(company.Create, defaultTimeout))
	companyGroup.DELETE("/:id", auth.Require(auth.ManageCompanies), withTimeout(company.Delete, defaultTimeout))
	companyGroup.PUT("/token/:id/uses", auth.Require(auth.ManageTokens), withTimeout(company.UpdateTokenUses, defaultTimeout))
	companyGroup.DELETE("/token/:id", auth.Require(auth.ManageTokens), withTimeout(company.DeleteToken, defaultTimeout))

	users := controllers.UserController{
		Users: repo.Users(),
		Log:   logger,
	}
	userGroup := router.Group("/api/users", jwt.Middleware(), auth.Require(auth.ManageUsers))
	userGroup.GET("", withTimeout(users.List, defaultTimeout))
	userGroup.GET("/:id", withTimeout(users.Get, defaultTimeout))
	userGroup.PATCH("/:id/role", withTimeout(users.UpdateRole, defaultTimeout))
	userGroup.PATCH("/:id/status", withTimeout(users.UpdateStatus, defaultTimeout))
	userGroup.PATCH("/:id/companies", withTimeout(users.UpdateCompanies, defaultTimeout))
	userGroup.DELETE("/:id", withTimeout(users.Delete, defaultTimeout))

	return router
}

func withTimeout(handler gin.HandlerFunc, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		ch := make(chan struct{}, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					c.AbortWithStatus(http.StatusInternalServerError)
				}
				ch <- struct{}{}
			}()
			handler(c)
		}()

		select {
		case <-ch:
			c.Next()
		case <-time.After(timeout):
			c.Abort()
			c.String(http.StatusRequestTimeout, http.StatusText(http.StatusRequestTimeout))
			return
		}
	}
}
