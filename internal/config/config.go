package config

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"

	"github.com/poofware/leasing-service/internal/constants"
	"github.com/poofware/leasing-service/internal/utils"
)

type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string
	AppUrl           string
	Env              string

	// Database
	DBUrl string

	// Twilio / SendGrid for tenant & landlord notifications
	TwilioAccountSID string
	TwilioAuthToken  string
	SendGridAPIKey   string

	// Auth
	RSAPublicKey *rsa.PublicKey
	JWTIssuer    string

	// Scheduling
	GraceSweepSchedule string

	// LaunchDarkly flags (viper defaults when no LD key is configured)
	LDFlag_TwilioFromPhone     string
	LDFlag_SendgridFromEmail   string
	LDFlag_SendgridSandboxMode bool
	LDFlag_SeedDbWithTestData  bool
	LDFlag_CORSHighSecurity    bool
	LDFlag_GraceSweepEnabled   bool
}

const (
	OrganizationName    = "Poof"
	LDConnectionTimeout = 5 * time.Second
)

// build-time overrides
var (
	AppName             = "leasing-service"
	LDServerContextKey  = "leasing-service"
	LDServerContextKind = "service"
)

// LoadConfig reads the environment (and CONFIG_FILE when set) and resolves
// feature flags. Any missing required value is fatal.
func LoadConfig() *Config {
	utils.Logger.Info("Loading config for app: ", AppName)

	v := newViper()
	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			utils.Logger.WithError(err).Fatalf("Failed to read config file %s", file)
		}
	}

	cfg, err := fromViper(v)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid configuration")
	}

	flags := flagSource(viperFlags{v})
	if key := v.GetString("LD_SDK_KEY"); key != "" {
		ldFlags, err := newLDFlags(key)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to initialize LaunchDarkly client")
		}
		defer ldFlags.Close()
		flags = ldFlags
	} else {
		utils.Logger.Warn("LD_SDK_KEY not set, feature flags come from environment defaults")
	}
	applyFlags(cfg, flags)
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("ENV", "dev")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_URL_FROM_ANYWHERE", "http://localhost:8080")
	v.SetDefault("JWT_ISSUER", "poofware")
	v.SetDefault("GRACE_SWEEP_SCHEDULE", constants.DefaultGraceSweepSchedule)

	v.SetDefault("twilio_from_phone", "+10005550006")
	v.SetDefault("sendgrid_from_email", "no-reply@thepoofapp.com")
	v.SetDefault("sendgrid_sandbox_mode", true)
	v.SetDefault("seed_db_with_test_data", false)
	v.SetDefault("cors_high_security", false)
	v.SetDefault("grace_sweep_enabled", true)
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		OrganizationName:   OrganizationName,
		AppName:            AppName,
		AppPort:            v.GetString("APP_PORT"),
		AppUrl:             v.GetString("APP_URL_FROM_ANYWHERE"),
		Env:                v.GetString("ENV"),
		DBUrl:              v.GetString("DB_URL"),
		TwilioAccountSID:   v.GetString("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    v.GetString("TWILIO_AUTH_TOKEN"),
		SendGridAPIKey:     v.GetString("SENDGRID_API_KEY"),
		JWTIssuer:          v.GetString("JWT_ISSUER"),
		GraceSweepSchedule: v.GetString("GRACE_SWEEP_SCHEDULE"),
	}
	if cfg.DBUrl == "" {
		return nil, errors.New("DB_URL env var is missing")
	}

	pubB64 := v.GetString("RSA_PUBLIC_KEY_BASE64")
	if pubB64 == "" {
		return nil, errors.New("RSA_PUBLIC_KEY_BASE64 env var is missing")
	}
	pubKey, err := parseRSAPublicKey(pubB64)
	if err != nil {
		return nil, err
	}
	cfg.RSAPublicKey = pubKey

	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" {
		utils.Logger.Warn("Twilio credentials missing, SMS notifications disabled")
	}
	if cfg.SendGridAPIKey == "" {
		utils.Logger.Warn("SENDGRID_API_KEY missing, email notifications disabled")
	}
	return cfg, nil
}

func parseRSAPublicKey(b64 string) (*rsa.PublicKey, error) {
	pubPEM, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode RSA_PUBLIC_KEY_BASE64: %w", err)
	}
	if block, _ := pem.Decode(pubPEM); block == nil {
		return nil, errors.New("failed to decode PEM block for public key")
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, fmt.Errorf("parse RSA public key: %w", err)
	}
	return pubKey, nil
}
