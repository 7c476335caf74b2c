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

// Email backends
const (
	EmailConsole  = "console"
	EmailSendgrid = "sendgrid"
)

// Storage backends
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

type (
	Config struct {
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		SecretKey    string
		RollbarToken string

		Server     ServerConfig
		Database   DatabaseConfig
		Mongo      MongoConfig
		Email      EmailConfig
		Attendance AttendanceConfig
	}

	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Backend       string // postgres | mongo | memory
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	MongoConfig struct {
		URI      string
		Database string
		Timeout  time.Duration
	}

	EmailConfig struct {
		Backend        string // console | sendgrid
		SendgridAPIKey string
		FromName       string
		FromAddress    string
	}

	// AttendanceConfig holds the report tier thresholds (percentages).
	AttendanceConfig struct {
		GoodThreshold    int
		AverageThreshold int
	}
)

func (dc DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", dc.Host, dc.Port)
}

func (ec EmailConfig) From() mail.Address {
	return mail.Address{Name: ec.FromName, Address: ec.FromAddress}
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Mahudhurio")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)

	v.SetDefault("database.backend", BackendPostgres)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "mahudhurio")
	v.SetDefault("database.user", "mahudhurio")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "mahudhurio")
	v.SetDefault("mongo.timeout", 10*time.Second)

	v.SetDefault("email.backend", EmailConsole)
	v.SetDefault("email.sendgridApiKey", "")
	v.SetDefault("email.fromName", "Mahudhurio")
	v.SetDefault("email.fromAddress", "no-reply@mahudhurio.local")

	v.SetDefault("attendance.goodThreshold", 90)
	v.SetDefault("attendance.averageThreshold", 75)
}

// NewConfig loads the app configuration from defaults, an optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed with the uppercased env name, eg. `PROD_DATABASE_HOST`.
func NewConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Backend:       strings.ToLower(v.GetString("database.backend")),
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("mongo.uri"),
			Database: v.GetString("mongo.database"),
			Timeout:  v.GetDuration("mongo.timeout"),
		},
		Email: EmailConfig{
			Backend:        strings.ToLower(v.GetString("email.backend")),
			SendgridAPIKey: v.GetString("email.sendgridApiKey"),
			FromName:       v.GetString("email.fromName"),
			FromAddress:    v.GetString("email.fromAddress"),
		},
		Attendance: AttendanceConfig{
			GoodThreshold:    v.GetInt("attendance.goodThreshold"),
			AverageThreshold: v.GetInt("attendance.averageThreshold"),
		},
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) validate() error {
	switch c.Database.Backend {
	case BackendPostgres, BackendMongo, BackendMemory:
	default:
		return errors.Errorf("unknown database backend %q", c.Database.Backend)
	}
	switch c.Email.Backend {
	case EmailConsole:
	case EmailSendgrid:
		if c.Email.SendgridAPIKey == "" {
			return errors.New("email.sendgridApiKey is required by the sendgrid email backend")
		}
	default:
		return errors.Errorf("unknown email backend %q", c.Email.Backend)
	}
	if c.Attendance.AverageThreshold > c.Attendance.GoodThreshold {
		return errors.New("attendance.averageThreshold cannot be greater than attendance.goodThreshold")
	}
	return nil
}

// NewTestConfig returns a config suitable for tests; it never reads the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		AppName:   "Mahudhurio",
		SecretKey: "test-secret",
		Server: ServerConfig{
			Host:               "localhost",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: time.Hour,
		},
		Database:   DatabaseConfig{Backend: BackendMemory},
		Email:      EmailConfig{Backend: EmailConsole, FromName: "Mahudhurio", FromAddress: "no-reply@mahudhurio.test"},
		Attendance: AttendanceConfig{GoodThreshold: 90, AverageThreshold: 75},
	}
}
