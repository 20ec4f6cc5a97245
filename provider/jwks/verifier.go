package jwks

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"

	checkauth "github.com/punwave/go-check-auth"
)

const (
	TextCodeTokenExpired   = "jwks_token_expired"
	TextCodeTokenMalformed = "jwks_token_malformed"
	TextCodeTokenRejected  = "jwks_token_rejected"
)

// ErrTokenExpired is returned when the token is past its expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when the token cannot be parsed.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryBadInput).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeBadRequest)

// ErrTokenRejected is returned when signature or claim checks fail.
var ErrTokenRejected = errors.New("token rejected", errors.CategoryAuth).
	WithTextCode(TextCodeTokenRejected).
	WithCode(errors.CodeUnauthorized)

// Config holds JWKS verifier configuration.
type Config struct {
	// KeysURL is the JWK Set endpoint signing keys are loaded from.
	KeysURL string

	// Issuer, when set, must match the token iss claim.
	Issuer string

	// Audience, when set, must be present in the token aud claim.
	Audience string

	// Methods restricts accepted signing algorithms, e.g. RS256.
	Methods []string

	// RefreshInterval controls background key refresh. Defaults to one hour.
	RefreshInterval time.Duration

	// RefreshTimeout bounds a single refresh request. Defaults to ten seconds.
	RefreshTimeout time.Duration
}

// Validate checks the config is usable before any key fetch runs.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.KeysURL, validation.Required, is.URL),
	)
}

// Verifier validates signed tokens against a remote JWK Set and maps their
// claims into user info. It implements checkauth.TokenVerifier.
type Verifier struct {
	config Config
	jwks   *keyfunc.JWKS
	logger checkauth.Logger
}

var _ checkauth.TokenVerifier = (*Verifier)(nil)

// Option configures a Verifier.
type Option func(*Verifier)

// WithLogger sets the logger used by the verifier.
func WithLogger(logger checkauth.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithLoggerProvider resolves the verifier logger from a provider.
func WithLoggerProvider(provider checkauth.LoggerProvider) Option {
	return func(v *Verifier) {
		if provider != nil {
			_, v.logger = checkauth.ResolveLogger("checkauth.jwks", provider, v.logger)
		}
	}
}

// New creates a JWKS-backed verifier and performs the initial key fetch.
func New(cfg Config, opts ...Option) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid jwks verifier config").
			WithCode(errors.CodeBadRequest)
	}

	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = time.Hour
	}
	if cfg.RefreshTimeout == 0 {
		cfg.RefreshTimeout = 10 * time.Second
	}

	v := &Verifier{config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	if v.logger == nil {
		_, v.logger = checkauth.ResolveLogger("checkauth.jwks", nil, nil)
	}

	jwks, err := keyfunc.Get(cfg.KeysURL, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			v.logger.Warn("jwks background refresh failed", "error", err)
		},
		RefreshInterval:   cfg.RefreshInterval,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    cfg.RefreshTimeout,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "unable to load jwk set").
			WithMetadata(map[string]any{
				"keys_url": cfg.KeysURL,
			})
	}
	v.jwks = jwks

	return v, nil
}

// VerifyToken implements checkauth.TokenVerifier.
func (v *Verifier) VerifyToken(ctx context.Context, tokenString string) (*checkauth.UserInfo, error) {
	opts := []jwt.ParserOption{}
	if len(v.config.Methods) > 0 {
		opts = append(opts, jwt.WithValidMethods(v.config.Methods))
	}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}
	if v.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.config.Audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.jwks.Keyfunc, opts...)
	if err != nil {
		return nil, normalizeTokenError(err)
	}
	if !token.Valid {
		return nil, ErrTokenRejected
	}

	return checkauth.NewUserInfo(map[string]any(claims)), nil
}

// Close stops the background key refresh.
func (v *Verifier) Close() error {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
	return nil
}

func normalizeTokenError(err error) error {
	if err == nil {
		return nil
	}

	clone := ErrTokenRejected.Clone()
	switch {
	case stderrors.Is(err, jwt.ErrTokenExpired):
		clone = ErrTokenExpired.Clone()
	case stderrors.Is(err, jwt.ErrTokenMalformed):
		clone = ErrTokenMalformed.Clone()
	}

	clone.Source = err
	return clone.WithMetadata(map[string]any{
		"cause": err.Error(),
	})
}
