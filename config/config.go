package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"ticket_engine/model"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	ECPay    model.ECPayConfig
	Engine   EngineConfig
}

type ServerConfig struct {
	Port          string
	Environment   string
	BodyLimit     int
	EnableMetrics bool
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type EngineConfig struct {
	HoldDuration        time.Duration
	RedeemAdvanceWindow time.Duration
	HoldSweepInterval   time.Duration
	HoldSweepGrace      time.Duration
	TimezoneOffsetHours int
}

// Location is the fixed zone used for gateway timestamps.
func (e EngineConfig) Location() *time.Location {
	return time.FixedZone("CST", e.TimezoneOffsetHours*3600)
}

// Load reads .env when present and then the process environment.
func Load() *Config {
	_ = godotenv.Load()
	env := getEnv("ENVIRONMENT", "development")

	return &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "8080"),
			Environment:   env,
			BodyLimit:     getEnvAsInt("BODY_LIMIT", 1<<20),
			EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			Name:       getEnv("DB_NAME", "tickets"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "tickets.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		ECPay: model.ECPayConfig{
			MerchantID:          getEnv("ECPAY_MERCHANT_ID", "3002607"),
			HashKey:             getEnv("ECPAY_HASH_KEY", "pwFHCqoQZGmho4w6"),
			HashIV:              getEnv("ECPAY_HASH_IV", "EkRm7iFT261dpevs"),
			CheckoutURL:         getEnv("ECPAY_CHECKOUT_URL", "https://payment-stage.ecpay.com.tw/Cashier/AioCheckOut/V5"),
			ActionURL:           getEnv("ECPAY_ACTION_URL", "https://payment-stage.ecpay.com.tw/CreditDetail/DoAction"),
			CallbackURL:         getEnv("ECPAY_CALLBACK_URL", "http://localhost:8080/payments/ecpay/callback"),
			ReturnURL:           getEnv("ECPAY_RETURN_URL", ""),
			ClientBackURL:       getEnv("ECPAY_CLIENT_BACK_URL", "http://localhost:3000/orders"),
			ChoosePayment:       getEnv("ECPAY_CHOOSE_PAYMENT", "ALL"),
			IgnorePayment:       getEnv("ECPAY_IGNORE_PAYMENT", ""),
			RefundTimeout:       getEnvAsDuration("ECPAY_REFUND_TIMEOUT", 30*time.Second),
			AcceptSimulatedPaid: getEnvAsBool("ECPAY_ACCEPT_SIMULATED_PAID", env == "development"),
		},
		Engine: EngineConfig{
			HoldDuration:        getEnvAsDuration("HOLD_DURATION", 15*time.Minute),
			RedeemAdvanceWindow: getEnvAsDuration("REDEEM_ADVANCE_WINDOW", 2*time.Hour),
			HoldSweepInterval:   getEnvAsDuration("HOLD_SWEEP_INTERVAL", time.Minute),
			HoldSweepGrace:      getEnvAsDuration("HOLD_SWEEP_GRACE", 30*time.Minute),
			TimezoneOffsetHours: getEnvAsInt("TIMEZONE_OFFSET_HOURS", 8),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
