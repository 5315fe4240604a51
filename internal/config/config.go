package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Admin    AdminConfig
	Payment  PaymentConfig
	Referral ReferralConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  int // in minutes
	RefreshExpiry int // in days
}

// AdminConfig is the seeded admin credential pair. Deliberately simple:
// the admin console is gated by an ordinary login with this account,
// whose profile carries the admin flag.
type AdminConfig struct {
	Email    string
	Password string
}

// PaymentConfig holds the UPI payee identity and payment window policy
type PaymentConfig struct {
	PayeeAddress      string
	PayeeName         string
	MerchantCode      string
	WindowMinutes     int
	SimulationEnabled bool
}

// Window returns the payment window as a duration
func (p PaymentConfig) Window() time.Duration {
	return time.Duration(p.WindowMinutes) * time.Minute
}

// ReferralConfig holds the reward ledger tunables
type ReferralConfig struct {
	RewardAmount      float64
	QualifyingTotal   float64
	MinimumRedemption float64
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ACCESS_EXPIRY", 15)
	viper.SetDefault("JWT_REFRESH_EXPIRY", 7)
	viper.SetDefault("UPI_PAYEE_ADDRESS", "daykart@ybl")
	viper.SetDefault("UPI_PAYEE_NAME", "DayKart")
	viper.SetDefault("UPI_MERCHANT_CODE", "5411")
	viper.SetDefault("PAYMENT_WINDOW_MINUTES", 5)
	viper.SetDefault("PAYMENT_SIMULATION_ENABLED", false)
	viper.SetDefault("REFERRAL_REWARD_AMOUNT", 50.0)
	viper.SetDefault("REFERRAL_QUALIFYING_TOTAL", 1999.0)
	viper.SetDefault("REFERRAL_MIN_REDEMPTION", 100.0)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  viper.GetInt("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: viper.GetInt("JWT_REFRESH_EXPIRY"),
		},
		Admin: AdminConfig{
			Email:    viper.GetString("ADMIN_EMAIL"),
			Password: viper.GetString("ADMIN_PASSWORD"),
		},
		Payment: PaymentConfig{
			PayeeAddress:      viper.GetString("UPI_PAYEE_ADDRESS"),
			PayeeName:         viper.GetString("UPI_PAYEE_NAME"),
			MerchantCode:      viper.GetString("UPI_MERCHANT_CODE"),
			WindowMinutes:     viper.GetInt("PAYMENT_WINDOW_MINUTES"),
			SimulationEnabled: viper.GetBool("PAYMENT_SIMULATION_ENABLED"),
		},
		Referral: ReferralConfig{
			RewardAmount:      viper.GetFloat64("REFERRAL_REWARD_AMOUNT"),
			QualifyingTotal:   viper.GetFloat64("REFERRAL_QUALIFYING_TOTAL"),
			MinimumRedemption: viper.GetFloat64("REFERRAL_MIN_REDEMPTION"),
		},
	}
}
