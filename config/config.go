package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Env struct {
	AppPort        int    `envconfig:"APP_PORT"     default:"8080"`
	DBHost         string `envconfig:"DB_HOST"      default:"localhost"`
	DBPort         int    `envconfig:"DB_PORT"      default:"5432"`
	DBName         string `envconfig:"DB_NAME"      default:"shortlink"`
	DBUser         string `envconfig:"DB_USER"      default:"shortlink"`
	DBPassword     string `envconfig:"DB_PASSWORD"  default:"shortlink"`
	CacheEngine    string `envconfig:"CACHE_ENGINE" default:"inmemory"`
	CacheHost      string `envconfig:"CACHE_HOST"   default:"localhost"`
	CachePort      int    `envconfig:"CACHE_PORT"   default:"6379"`
	RedirectOrigin string `envconfig:"REDIRECT_ORIGIN" default:"http://localhost:8080"`
	CodeLength     int    `envconfig:"SHORT_CODE_LENGTH" default:"6"`
	JWTSecret      string `envconfig:"JWT_SECRET"   default:"dev-secret-change-me"`

	// Tokens seeded when a company is created.
	TokenDefaultUses int `envconfig:"TOKEN_DEFAULT_USES" default:"1000"`
	TokenTTLDays     int `envconfig:"TOKEN_TTL_DAYS"     default:"365"`

	// Fallback expiry for urls created without one.
	UrlTTLDays int `envconfig:"URL_TTL_DAYS" default:"365"`

	// When set, redirection refuses requests that carry no lat/lng query
	// parameters instead of redirecting with an ungeolocated click.
	RequireGeolocation bool `envconfig:"REQUIRE_GEOLOCATION" default:"false"`
}

func Process() (env Env, err error) {
	err = envconfig.Process("", &env)
	return
}
