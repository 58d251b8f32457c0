package domain

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/astralgarden/astral.garden/internal/platform/errors"
)

// DefaultLinkGrantTTL bounds how long an issued link grant stays usable.
const DefaultLinkGrantTTL = 10 * time.Minute

// linkGrantEnv holds raw env values before post-parse validation.
type linkGrantEnv struct {
	Issuer     string        `env:"ASTRAL_GARDEN_LINK_GRANT_ISSUER"      envDefault:"astral.garden"`
	Audience   string        `env:"ASTRAL_GARDEN_LINK_GRANT_AUDIENCE"    envDefault:"astral.garden/link"`
	PrivateKey string        `env:"ASTRAL_GARDEN_LINK_GRANT_PRIVATE_KEY"`
	PublicKey  string        `env:"ASTRAL_GARDEN_LINK_GRANT_PUBLIC_KEY"`
	TTL        time.Duration `env:"ASTRAL_GARDEN_LINK_GRANT_TTL"         envDefault:"10m"`
}

// LinkGrantConfig defines how link grants are signed and verified. A zero
// config disables the feature.
type LinkGrantConfig struct {
	Issuer     string
	Audience   string
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
	TTL        time.Duration
	Now        func() time.Time
}

// Enabled reports whether grants can be verified.
func (c LinkGrantConfig) Enabled() bool {
	return len(c.PublicKey) == ed25519.PublicKeySize
}

// LinkGrantClaims captures validated link grant claims.
type LinkGrantClaims struct {
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	JWTID     string
	AccountID string
}

// linkGrantClaims is the internal claims type used for JWT parsing.
type linkGrantClaims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
}

// LoadLinkGrantConfigFromEnv reads link grant configuration. Missing keys
// leave the feature disabled rather than failing startup.
func LoadLinkGrantConfigFromEnv(now func() time.Time) (LinkGrantConfig, error) {
	var raw linkGrantEnv
	if err := env.Parse(&raw); err != nil {
		return LinkGrantConfig{}, fmt.Errorf("parse link grant env: %w", err)
	}
	privateKey := strings.TrimSpace(raw.PrivateKey)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if privateKey == "" && publicKey == "" {
		return LinkGrantConfig{}, nil
	}
	if raw.TTL <= 0 {
		return LinkGrantConfig{}, fmt.Errorf("link grant ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}
	cfg := LinkGrantConfig{
		Issuer:   strings.TrimSpace(raw.Issuer),
		Audience: strings.TrimSpace(raw.Audience),
		TTL:      raw.TTL,
		Now:      now,
	}
	if cfg.Issuer == "" {
		return LinkGrantConfig{}, fmt.Errorf("ASTRAL_GARDEN_LINK_GRANT_ISSUER is required")
	}
	if cfg.Audience == "" {
		return LinkGrantConfig{}, fmt.Errorf("ASTRAL_GARDEN_LINK_GRANT_AUDIENCE is required")
	}
	if privateKey != "" {
		keyBytes, err := decodeBase64(privateKey)
		if err != nil {
			return LinkGrantConfig{}, fmt.Errorf("decode link grant private key: %w", err)
		}
		if len(keyBytes) != ed25519.PrivateKeySize {
			return LinkGrantConfig{}, fmt.Errorf("link grant private key must be %d bytes", ed25519.PrivateKeySize)
		}
		cfg.PrivateKey = ed25519.PrivateKey(keyBytes)
	}
	if publicKey != "" {
		keyBytes, err := decodeBase64(publicKey)
		if err != nil {
			return LinkGrantConfig{}, fmt.Errorf("decode link grant public key: %w", err)
		}
		if len(keyBytes) != ed25519.PublicKeySize {
			return LinkGrantConfig{}, fmt.Errorf("link grant public key must be %d bytes", ed25519.PublicKeySize)
		}
		cfg.PublicKey = ed25519.PublicKey(keyBytes)
	} else {
		// A signer can always verify its own grants.
		cfg.PublicKey = cfg.PrivateKey.Public().(ed25519.PublicKey)
	}
	return cfg, nil
}

// SignLinkGrant issues a grant authorizing one certificate link for the
// account.
func SignLinkGrant(accountID string, jwtID string, cfg LinkGrantConfig) (string, error) {
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.PrivateKey) != ed25519.PrivateKeySize {
		return "", errors.New("link grant signer is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultLinkGrantTTL
	}
	now := cfg.Now().UTC()
	claims := linkGrantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jwtID,
		},
		AccountID: accountID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(cfg.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("sign link grant: %w", err)
	}
	return signed, nil
}

// ValidateLinkGrant verifies a link grant token and returns its claims.
func ValidateLinkGrant(grant string, cfg LinkGrantConfig) (LinkGrantClaims, error) {
	grant = strings.TrimSpace(grant)
	if grant == "" {
		return LinkGrantClaims{}, apperrors.New(apperrors.CodeLinkGrantInvalid, "link grant is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.PublicKey) != ed25519.PublicKeySize {
		return LinkGrantClaims{}, errors.New("link grant verifier is not configured")
	}

	var parsed linkGrantClaims
	_, err := jwt.ParseWithClaims(grant, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.PublicKey, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return LinkGrantClaims{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return LinkGrantClaims{}, apperrors.WithMetadata(
			apperrors.CodeLinkGrantMismatch,
			"link grant issuer mismatch",
			map[string]string{"Field": "issuer"},
		)
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return LinkGrantClaims{}, apperrors.WithMetadata(
			apperrors.CodeLinkGrantMismatch,
			"link grant audience mismatch",
			map[string]string{"Field": "audience"},
		)
	}

	if parsed.ID == "" {
		return LinkGrantClaims{}, apperrors.New(apperrors.CodeLinkGrantInvalid, "link grant jti is required")
	}
	if parsed.ExpiresAt == nil {
		return LinkGrantClaims{}, apperrors.New(apperrors.CodeLinkGrantInvalid, "link grant exp is required")
	}

	now := cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return LinkGrantClaims{}, apperrors.New(apperrors.CodeLinkGrantExpired, "link grant is expired")
	}
	if parsed.NotBefore != nil {
		nbf := parsed.NotBefore.Time.UTC()
		if now.Before(nbf) {
			return LinkGrantClaims{}, apperrors.New(apperrors.CodeLinkGrantInvalid, "link grant not active yet")
		}
	}

	if strings.TrimSpace(parsed.AccountID) == "" {
		return LinkGrantClaims{}, apperrors.New(apperrors.CodeLinkGrantInvalid, "link grant account is required")
	}

	claims := LinkGrantClaims{
		Issuer:    parsed.Issuer,
		Audience:  []string(parsed.Audience),
		ExpiresAt: exp,
		JWTID:     parsed.ID,
		AccountID: parsed.AccountID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeLinkGrantInvalid, "link grant signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeLinkGrantInvalid, "link grant alg is invalid")
	}
	return apperrors.New(apperrors.CodeLinkGrantInvalid, "link grant is invalid")
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
