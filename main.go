package main

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"goshortlink/auth"
	"goshortlink/cache"
	"goshortlink/cache/cacher"
	"goshortlink/cache/inmemory"
	"goshortlink/cache/redis"
	"goshortlink/codegen"
	"goshortlink/config"
	"goshortlink/logger"
	"goshortlink/repository"
	"goshortlink/server"
	"goshortlink/shortener"
)

var (
	env       config.Env
	db        repository.Repository
	zaplogger *zap.Logger
)

func main() {
	// A local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var err error
	zaplogger, err = logger.New()
	if err != nil {
		log.Fatalf("failed to initialize logger: %s", err)
	}

	env, err = config.Process()
	if err != nil {
		log.Fatalf("failed to process env: %s", err)
	}

	db, err = repository.NewPGRepo(env.DBPort, env.DBHost, env.DBUser, env.DBName, env.DBPassword)
	if err != nil {
		log.Fatalf("failed to connect db: %s", err)
	}

	cachedUrls := cache.New(db.Urls(), newCacheEngine(), zaplogger)
	codes := codegen.New(db.Urls(), env.CodeLength, zaplogger)
	short := shortener.New(
		cachedUrls,
		db.Tokens(),
		codes,
		zaplogger,
		time.Duration(env.UrlTTLDays)*24*time.Hour,
	)
	jwt := auth.NewManager(env.JWTSecret)

	r := server.NewRouter(db, cachedUrls, short, jwt, zaplogger, env)
	r.Run(fmt.Sprintf(":%d", env.AppPort))
}

func newCacheEngine() cacher.Engine {
	switch env.CacheEngine {
	case "redis":
		zaplogger.Info("using redis cache",
			zap.String("host", env.CacheHost),
			zap.Int("port", env.CachePort))
		return redis.New(env.CacheHost, env.CachePort)
	default:
		zaplogger.Info("using in-memory cache")
		return inmemory.New(cache.DefaultExp, cache.DefaultClearInterval)
	}
}
