package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultOIDCJWKSURL  = "https://www.googleapis.com/oauth2/v3/certs"
	defaultOIDCIssuer   = "https://accounts.google.com"

	secretRefPrefix = "sm://"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Firebase  FirebaseConfig
	Firestore FirestoreConfig
	Storage   StorageConfig
	PubSub    PubSubConfig
	Stripe    StripeConfig
	Security  SecurityConfig
	Features  FeatureFlags
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirebaseConfig stores Firebase project settings used for auth.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// FirestoreConfig stores document database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// StorageConfig names the bucket holding merchant media.
type StorageConfig struct {
	MediaBucket string
}

// PubSubConfig names the topics used for asynchronous side effects.
type PubSubConfig struct {
	ProjectID         string
	NotificationTopic string
	MediaJobsTopic    string
}

// StripeConfig collects billing credentials. Values may be Secret Manager
// references (sm://...) resolved during Load.
type StripeConfig struct {
	APIKey        string
	WebhookSecret string
	BasicPriceID  string
	ProPriceID    string
	SuccessURL    string
	CancelURL     string
}

// SecurityConfig groups server-to-server authentication settings.
type SecurityConfig struct {
	Environment string
	OIDC        OIDCConfig
}

// OIDCConfig controls Google-signed token verification on internal routes.
type OIDCConfig struct {
	JWKSURL  string
	Audience string
	Issuers  []string
}

// FeatureFlags toggle optional behaviour without redeploying.
type FeatureFlags struct {
	EnableAICaptions        bool
	EnableBackgroundRemoval bool
}

// SecretResolver resolves references to externally stored secrets.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError reports required fields that are missing or invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	secrets      SecretResolver
}

// WithEnvFile overrides the .env file consulted during loading.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = strings.TrimSpace(path) }
}

// WithEnvMap supplies explicit values taking precedence over the process
// environment. Primarily used by tests.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

// WithoutSystemEnv disables fallback to the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.useSystemEnv = false }
}

// WithSecretResolver installs the resolver used for sm:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) { o.secrets = resolver }
}

// Load assembles the configuration from the environment, an optional .env
// file, and explicit overrides; it then validates required fields and
// resolves secret references.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	fileValues, err := readEnvFile(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) string {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return strings.TrimSpace(value)
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return strings.TrimSpace(value)
			}
		}
		return strings.TrimSpace(fileValues[key])
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         valueOrDefault(lookup("PORT"), defaultPort),
			ReadTimeout:  durationOrDefault(lookup("SERVER_READ_TIMEOUT"), defaultReadTimeout),
			WriteTimeout: durationOrDefault(lookup("SERVER_WRITE_TIMEOUT"), defaultWriteTimeout),
			IdleTimeout:  durationOrDefault(lookup("SERVER_IDLE_TIMEOUT"), defaultIdleTimeout),
		},
		Firebase: FirebaseConfig{
			ProjectID:       lookup("FIREBASE_PROJECT_ID"),
			CredentialsFile: lookup("FIREBASE_CREDENTIALS_FILE"),
		},
		Firestore: FirestoreConfig{
			ProjectID:    valueOrDefault(lookup("FIRESTORE_PROJECT_ID"), lookup("FIREBASE_PROJECT_ID")),
			EmulatorHost: lookup("FIRESTORE_EMULATOR_HOST"),
		},
		Storage: StorageConfig{
			MediaBucket: lookup("MEDIA_BUCKET"),
		},
		PubSub: PubSubConfig{
			ProjectID:         valueOrDefault(lookup("PUBSUB_PROJECT_ID"), lookup("FIREBASE_PROJECT_ID")),
			NotificationTopic: lookup("NOTIFICATION_TOPIC"),
			MediaJobsTopic:    lookup("MEDIA_JOBS_TOPIC"),
		},
		Stripe: StripeConfig{
			APIKey:        lookup("STRIPE_API_KEY"),
			WebhookSecret: lookup("STRIPE_WEBHOOK_SECRET"),
			BasicPriceID:  lookup("STRIPE_BASIC_PRICE_ID"),
			ProPriceID:    lookup("STRIPE_PRO_PRICE_ID"),
			SuccessURL:    lookup("STRIPE_SUCCESS_URL"),
			CancelURL:     lookup("STRIPE_CANCEL_URL"),
		},
		Security: SecurityConfig{
			Environment: valueOrDefault(lookup("ENVIRONMENT"), "local"),
			OIDC: OIDCConfig{
				JWKSURL:  valueOrDefault(lookup("OIDC_JWKS_URL"), defaultOIDCJWKSURL),
				Audience: lookup("OIDC_AUDIENCE"),
				Issuers:  splitList(valueOrDefault(lookup("OIDC_ISSUERS"), defaultOIDCIssuer)),
			},
		},
		Features: FeatureFlags{
			EnableAICaptions:        boolValue(lookup("ENABLE_AI_CAPTIONS")),
			EnableBackgroundRemoval: boolValue(lookup("ENABLE_BACKGROUND_REMOVAL")),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if err := cfg.resolveSecrets(ctx, options.secrets); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Firebase.ProjectID == "" {
		missing = append(missing, "FIREBASE_PROJECT_ID")
	}
	if c.Firestore.ProjectID == "" {
		missing = append(missing, "FIRESTORE_PROJECT_ID")
	}
	if c.Server.Port == "" {
		missing = append(missing, "PORT")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &ValidationError{fields: missing}
	}
	return nil
}

func (c *Config) resolveSecrets(ctx context.Context, resolver SecretResolver) error {
	refs := []*string{
		&c.Stripe.APIKey,
		&c.Stripe.WebhookSecret,
	}
	for _, ref := range refs {
		value := strings.TrimSpace(*ref)
		if !strings.HasPrefix(value, secretRefPrefix) {
			continue
		}
		if resolver == nil {
			return fmt.Errorf("config: secret resolver required for reference %q", redactRef(value))
		}
		resolved, err := resolver.ResolveSecret(ctx, strings.TrimPrefix(value, secretRefPrefix))
		if err != nil {
			return fmt.Errorf("config: resolve secret %q: %w", redactRef(value), err)
		}
		*ref = strings.TrimSpace(resolved)
	}
	return nil
}

func redactRef(ref string) string {
	if len(ref) <= len(secretRefPrefix)+8 {
		return ref
	}
	return ref[:len(secretRefPrefix)+8] + "..."
}

func readEnvFile(path string) (map[string]string, error) {
	values := map[string]string{}
	if strings.TrimSpace(path) == "" {
		return values, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, nil
		}
		return nil, fmt.Errorf("config: open env file %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key != "" {
			values[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read env file %s: %w", path, err)
	}
	return values, nil
}

func valueOrDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func durationOrDefault(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func boolValue(value string) bool {
	parsed, err := strconv.ParseBool(strings.ToLower(value))
	return err == nil && parsed
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
