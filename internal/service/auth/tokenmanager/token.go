package tokenmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims carried by both access and refresh tokens.
// Type tells them apart, the codec never checks it.
type Claims struct {
	jwt.RegisteredClaims
	Type models.TokenType `json:"type"`
}

// Token manager with sensible default
type Config struct {
	// Secret key to sign tokens of both types
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm: HS256, HS384 or HS512
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Clock to stamp and check expiry, time.Now if not set
	Now func() time.Time
}

type TokenManager struct {
	key []byte
	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg, err := signingMethod(cfg.Alg)
	if err != nil {
		return nil, err
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenManager{
		key:        []byte(cfg.SecretKey),
		alg:        alg,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}, nil
}

func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// Encode signs a token of the given type that expires ttl from now
func (m *TokenManager) Encode(subject string, typ models.TokenType, ttl time.Duration) (models.IssuedToken, error) {
	return encode(m.now(), subject, typ, ttl, m.key, m.alg)
}

// Decode verifies signature and expiry and returns the payload.
// Fails with apperrors.ErrTokenExpired or apperrors.ErrTokenMalformed.
func (m *TokenManager) Decode(token string) (models.TokenPayload, error) {
	return decode(m.now, token, m.key, m.alg)
}

// GeneratePair issues access and refresh tokens for the same subject
func (m *TokenManager) GeneratePair(subject string) (models.TokenPair, error) {
	var pair models.TokenPair
	now := m.now()

	access, err := encode(now, subject, models.TokenTypeAccess, m.accessTTL, m.key, m.alg)
	if err != nil {
		return pair, fmt.Errorf("error while issuing access token. Err: %w", err)
	}

	refresh, err := encode(now, subject, models.TokenTypeRefresh, m.refreshTTL, m.key, m.alg)
	if err != nil {
		return pair, fmt.Errorf("error while issuing refresh token. Err: %w", err)
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Encode is the stateless form of TokenManager.Encode
func Encode(subject string, typ models.TokenType, ttl time.Duration, secret []byte, alg string) (string, error) {
	method, err := signingMethod(alg)
	if err != nil {
		return "", err
	}

	token, err := encode(time.Now(), subject, typ, ttl, secret, method)
	return token.Value, err
}

// Decode is the stateless form of TokenManager.Decode
func Decode(token string, secret []byte, alg string) (models.TokenPayload, error) {
	method, err := signingMethod(alg)
	if err != nil {
		return models.TokenPayload{}, err
	}

	return decode(time.Now, token, secret, method)
}

func encode(now time.Time, subject string, typ models.TokenType, ttl time.Duration, key []byte, alg jwt.SigningMethod) (models.IssuedToken, error) {
	switch {
	case subject == "":
		return models.IssuedToken{}, errors.New("token subject must not be empty")
	case !typ.Valid():
		return models.IssuedToken{}, fmt.Errorf("unknown token type %q", typ)
	case ttl <= 0:
		return models.IssuedToken{}, fmt.Errorf("token ttl must be positive, got %s", ttl)
	case len(key) == 0:
		return models.IssuedToken{}, errors.New("secret key must not be empty")
	}

	// JWT numeric dates have second precision
	now = now.Truncate(time.Second)
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(
		alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   subject,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			Type: typ,
		},
	)

	value, err := token.SignedString(key)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing token. Err: %w", err)
	}

	return models.IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

func decode(now func() time.Time, token string, key []byte, alg jwt.SigningMethod) (models.TokenPayload, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			return key, nil
		},
		jwt.WithValidMethods([]string{alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.TokenPayload{}, fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
	default:
		return models.TokenPayload{}, fmt.Errorf("%w: %w", apperrors.ErrTokenMalformed, err)
	}

	payload := models.TokenPayload{
		ID:      claims.ID,
		Subject: claims.Subject,
		Type:    claims.Type,
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}

	return payload, nil
}

// Only MAC algorithms fit a single shared secret
func signingMethod(alg string) (jwt.SigningMethod, error) {
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q, use one of HS256, HS384, HS512", alg)
	}
	return method, nil
}
