package config

import (
	"errors"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/spf13/viper"

	"github.com/poofware/leasing-service/internal/utils"
)

type flagSource interface {
	Bool(key string, def bool) bool
	String(key string, def string) string
}

type viperFlags struct {
	v *viper.Viper
}

func (f viperFlags) Bool(key string, def bool) bool {
	if !f.v.IsSet(key) {
		return def
	}
	return f.v.GetBool(key)
}

func (f viperFlags) String(key string, def string) string {
	if s := f.v.GetString(key); s != "" {
		return s
	}
	return def
}

type ldFlags struct {
	client *ld.LDClient
	ctx    ldcontext.Context
}

func newLDFlags(sdkKey string) (*ldFlags, error) {
	client, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		return nil, err
	}
	if !client.Initialized() {
		client.Close()
		return nil, errors.New("LaunchDarkly client failed to initialize")
	}
	return &ldFlags{
		client: client,
		ctx:    ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), LDServerContextKey),
	}, nil
}

func (f *ldFlags) Bool(key string, def bool) bool {
	val, err := f.client.BoolVariation(key, f.ctx, def)
	if err != nil {
		utils.Logger.WithError(err).Warnf("Error retrieving %s flag, using default", key)
		return def
	}
	utils.Logger.Debugf("%s flag: %t", key, val)
	return val
}

func (f *ldFlags) String(key string, def string) string {
	val, err := f.client.StringVariation(key, f.ctx, def)
	if err != nil || val == "" {
		utils.Logger.Warnf("%s flag is empty, defaulting to %s", key, def)
		return def
	}
	utils.Logger.Debugf("%s flag: %s", key, val)
	return val
}

func (f *ldFlags) Close() {
	_ = f.client.Close()
}

func applyFlags(cfg *Config, flags flagSource) {
	cfg.LDFlag_TwilioFromPhone = flags.String("twilio_from_phone", "+10005550006")
	cfg.LDFlag_SendgridFromEmail = flags.String("sendgrid_from_email", "no-reply@thepoofapp.com")
	cfg.LDFlag_SendgridSandboxMode = flags.Bool("sendgrid_sandbox_mode", true)
	cfg.LDFlag_SeedDbWithTestData = flags.Bool("seed_db_with_test_data", false)
	cfg.LDFlag_CORSHighSecurity = flags.Bool("cors_high_security", false)
	cfg.LDFlag_GraceSweepEnabled = flags.Bool("grace_sweep_enabled", true)
}
