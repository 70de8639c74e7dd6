package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr              string
	DatabaseURL       string
	RedisURL          string
	KafkaBrokers      string
	AuditTopic        string
	JWTSigningKey     string
	ControllerAccount string
	RegistrationFee   uint64
	// RegistrationFeeSet records that REGISTRATION_FEE was present in the
	// environment, so a persisted fee can be overridden deliberately.
	RegistrationFeeSet bool
	NameCacheTTL       time.Duration
}

// NameCacheTTL bounds retention for cached name-owner lookups.
var defaultNameCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("VPROVE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	auditTopic := os.Getenv("AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "vprove.audit"
	}

	// Deploy default matches the original registry: 1 unit.
	fee := uint64(1)
	feeSet := false
	if raw := os.Getenv("REGISTRATION_FEE"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			fee = parsed
			feeSet = true
		}
	}

	cacheTTL := defaultNameCacheTTL
	if raw := os.Getenv("NAME_CACHE_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			cacheTTL = parsed
		}
	}

	return Server{
		Addr:               addr,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		KafkaBrokers:       os.Getenv("KAFKA_BROKERS"),
		AuditTopic:         auditTopic,
		JWTSigningKey:      jwtSigningKey,
		ControllerAccount:  os.Getenv("CONTROLLER_ACCOUNT"),
		RegistrationFee:    fee,
		RegistrationFeeSet: feeSet,
		NameCacheTTL:       cacheTTL,
	}
}
