package core

import (
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		Build    string

		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail string
		SendgridApiKey   string
		RollbarToken     string

		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Uploads  UploadsConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		ShutdownTimeout           time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	UploadsConfig struct {
		Dir       string
		URLPrefix string
		MaxSize   int64 // bytes
	}
)

func (c ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *Config) FromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
}

// LoadConfig builds the app Config from defaults, an optional
// config/.env.<env> file and environment variables prefixed with <ENV>_.
func LoadConfig(rootDir string) (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("secretKey", "w3=v+v5-9$yqf#b*&0t0%8-fnxj0+@fr1b)55vz&fe70-2(b$f")
	v.SetDefault("frontendBaseUrl", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("serverHost", "")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("shutdownTimeout", 20*time.Second)
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "darasa")
	v.SetDefault("dbUser", "darasa")
	v.SetDefault("dbPassword", "darasa")
	v.SetDefault("dbAdminUser", "")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbDisableTls", true)
	v.SetDefault("uploadsDir", filepath.Join(rootDir, "uploads"))
	v.SetDefault("uploadsUrlPrefix", "/uploads")
	v.SetDefault("uploadsMaxSize", int64(10<<20))

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env.<env> if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(rootDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:                       env,
		Debug:                     v.GetBool("debug"),
		TestMode:                  env == "TEST",
		Build:                     v.GetString("build"),
		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           v.GetString("frontendBaseUrl"),
		DefaultFromEmail:          v.GetString("defaultFromEmail"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Port:                      v.GetString("serverPort"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
			ShutdownTimeout:           v.GetDuration("shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			DisableTLS:    v.GetBool("dbDisableTls"),
		},
		Uploads: UploadsConfig{
			Dir:       v.GetString("uploadsDir"),
			URLPrefix: v.GetString("uploadsUrlPrefix"),
			MaxSize:   v.GetInt64("uploadsMaxSize"),
		},
	}
	if env == "PROD" && conf.Debug {
		return nil, fmt.Errorf("debug mode is not allowed in %s", env)
	}
	return conf, nil
}
