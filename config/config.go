package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "ELABEL_CONFIG_FILE"
	envPrefix         = "ELABEL"

	DriverMemory   = "memory"
	DriverPostgres = "postgres"

	minJWTSecretLen = 16
	mask            = "******"
)

type storage struct {
	Driver   string `mapstructure:"driver"`
	SQLDB    string `mapstructure:"sql_db"`
	SeedFile string `mapstructure:"seed_file"`
}

type auth struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	Issuer     string        `mapstructure:"issuer"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

type tlsFiles struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

func (t tlsFiles) Enabled() bool {
	return t.CA != "" || t.Cert != "" || t.Key != ""
}

type topics struct {
	ProductEvents    string `mapstructure:"product_events"`
	IngredientEvents string `mapstructure:"ingredient_events"`
}

type groups struct {
	Labels string `mapstructure:"labels"`
}

type broker struct {
	Enabled            bool     `mapstructure:"enabled"`
	SeedBrokers        []string `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string `mapstructure:"schema_registry_urls"`
	TLS                tlsFiles `mapstructure:"tls"`
	Topics             topics   `mapstructure:"topics"`
	Groups             groups   `mapstructure:"groups"`
}

type objectStore struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type label struct {
	QRServiceURL      string      `mapstructure:"qr_service_url"`
	QRSize            int         `mapstructure:"qr_size"`
	RequestsPerMinute int         `mapstructure:"requests_per_minute"`
	ObjectStore       objectStore `mapstructure:"objectstore"`
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	PublicBaseURL  string     `mapstructure:"public_base_url"`
	Storage        storage    `mapstructure:"storage"`
	Auth           auth       `mapstructure:"auth"`
	Broker         broker     `mapstructure:"broker"`
	Label          label      `mapstructure:"label"`
}

var defaults = map[string]any{
	"log_level":                       "info",
	"http_server_addr":                ":8080",
	"public_base_url":                 "http://localhost:8080",
	"storage.driver":                  DriverMemory,
	"storage.sql_db":                  "",
	"storage.seed_file":               "",
	"auth.jwt_secret":                 "",
	"auth.issuer":                     "e-label",
	"auth.token_ttl":                  "24h",
	"auth.bcrypt_cost":                12,
	"broker.enabled":                  false,
	"broker.seed_brokers":             []string{},
	"broker.schema_registry_urls":     []string{},
	"broker.tls.ca":                   "",
	"broker.tls.cert":                 "",
	"broker.tls.key":                  "",
	"broker.topics.product_events":    "elabel-product-events",
	"broker.topics.ingredient_events": "elabel-ingredient-events",
	"broker.groups.labels":            "elabel-labels",
	"label.qr_service_url":            "https://api.qrserver.com/v1/create-qr-code/",
	"label.qr_size":                   300,
	"label.requests_per_minute":       60,
	"label.objectstore.enabled":       false,
	"label.objectstore.endpoint":      "",
	"label.objectstore.access_key":    "",
	"label.objectstore.secret_key":    "",
	"label.objectstore.bucket":        "elabel-qr",
	"label.objectstore.region":        "",
	"label.objectstore.use_ssl":       false,
}

// Load reads the config file named by --config or ELABEL_CONFIG_FILE and
// exits the process on failure.
func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads path, applies ELABEL_* environment overrides and
// validates the result. ELABEL_AUTH_JWT_SECRET overrides auth.jwt_secret.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.SQLDB == "" {
			errs = append(errs, errors.New("storage.sql_db is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is unknown", c.Storage.Driver))
	}

	if len(c.Auth.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Errorf(
			"auth.jwt_secret must be at least %d characters", minJWTSecretLen,
		))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}

	if u, err := url.Parse(c.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, errors.New("public_base_url must be an absolute url"))
	}

	if c.Broker.Enabled {
		if len(c.Broker.SeedBrokers) == 0 {
			errs = append(errs, errors.New("broker.seed_brokers is required"))
		}
		if len(c.Broker.SchemaRegistryURLs) == 0 {
			errs = append(errs, errors.New("broker.schema_registry_urls is required"))
		}
		if c.Broker.Topics.ProductEvents == "" ||
			c.Broker.Topics.IngredientEvents == "" ||
			c.Broker.Groups.Labels == "" {
			errs = append(errs, errors.New("broker topics and groups are required"))
		}
	}

	store := c.Label.ObjectStore
	if store.Enabled && (store.Endpoint == "" || store.Bucket == "") {
		errs = append(errs, errors.New("label.objectstore endpoint and bucket are required"))
	}

	return errors.Join(errs...)
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	fmt.Println("Loaded config:")
	fmt.Print(c.String())
}

// String renders the config with secrets masked.
func (c Config) String() string {
	template := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	PublicBaseURL=%q

	Storage:
	Driver=%q
	SQLDB=%q
	SeedFile=%q

	Auth:
	JWTSecret=%q
	Issuer=%q
	TokenTTL=%q

	BrokerConfig:
	Enabled=%t
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		ProductEvents=%q
		IngredientEvents=%q
	Groups:
		Labels=%q

	Label:
	QRServiceURL=%q
	QRSize=%d
	RequestsPerMinute=%d
	ObjectStore:
		Enabled=%t
		Endpoint=%q
		AccessKey=%q
		SecretKey=%q
		Bucket=%q

`
	return fmt.Sprintf(
		strings.TrimLeft(template, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.PublicBaseURL,
		c.Storage.Driver,
		redactDSN(c.Storage.SQLDB),
		c.Storage.SeedFile,
		maskSecret(c.Auth.JWTSecret),
		c.Auth.Issuer,
		c.Auth.TokenTTL,
		c.Broker.Enabled,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.Topics.ProductEvents,
		c.Broker.Topics.IngredientEvents,
		c.Broker.Groups.Labels,
		c.Label.QRServiceURL,
		c.Label.QRSize,
		c.Label.RequestsPerMinute,
		c.Label.ObjectStore.Enabled,
		c.Label.ObjectStore.Endpoint,
		c.Label.ObjectStore.AccessKey,
		maskSecret(c.Label.ObjectStore.SecretKey),
		c.Label.ObjectStore.Bucket,
	)
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return mask
}

// redactDSN hides the password of URL shaped DSNs. Other forms are
// masked entirely.
func redactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return mask
	}
	return u.Redacted()
}
