package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	CatalogPath           string
	ERPBaseURL            string
	ERPAPIKey             string
	ERPTimeoutSeconds     int
	ResubmitGuardSeconds  int
	CostCacheTTLSeconds   int
	AuthSecret            string
	AccessTokenTTLMinutes int
	ManagerPIN            string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	guard, err := strconv.Atoi(getEnv("RESUBMIT_GUARD_SECONDS", "120"))
	if err != nil || guard < 0 {
		guard = 120
	}
	erpTimeout, err := strconv.Atoi(getEnv("ERP_TIMEOUT_SECONDS", "15"))
	if err != nil || erpTimeout < 1 {
		erpTimeout = 15
	}
	costTTL, err := strconv.Atoi(getEnv("COST_CACHE_TTL_SECONDS", "600"))
	if err != nil || costTTL < 1 {
		costTTL = 600
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		CatalogPath:           os.Getenv("CATALOG_PATH"),
		ERPBaseURL:            os.Getenv("ERP_BASE_URL"),
		ERPAPIKey:             strings.TrimSpace(os.Getenv("ERP_API_KEY")),
		ERPTimeoutSeconds:     erpTimeout,
		ResubmitGuardSeconds:  guard,
		CostCacheTTLSeconds:   costTTL,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		ManagerPIN:            strings.TrimSpace(os.Getenv("MANAGER_PIN")),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
