package session

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-session-manager/internal/config"
	"github.com/jrsteele09/go-session-manager/internal/errors"
	"github.com/jrsteele09/go-session-manager/token"
	"golang.org/x/crypto/hkdf"
)

const (
	encryptionKeyInfo = "go-session-manager envelope encryption key"
	signingKeyInfo    = "go-session-manager envelope signing key"
	keyLength         = 32
)

// Envelope is a decoded session cookie.
type Envelope struct {
	Token     token.Token
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type envelopeClaims struct {
	Token token.Token `json:"tok"`
	jwt.RegisteredClaims
}

// Codec seals session tokens into an encrypted, signed envelope: an HS256 JWT nested
// inside a compact JWE (dir, A256GCM). Both keys are derived from the session secret.
type Codec struct {
	encKey       []byte
	signKey      []byte
	maxAge       time.Duration
	refreshCycle time.Duration
	nowFunc      func() time.Time
}

type CodecOption func(*Codec)

func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func NewCodec(cfg config.SessionConfig, options ...CodecOption) (*Codec, error) {
	secret := cfg.GetSessionSecret()
	if len(secret) == 0 {
		return nil, fmt.Errorf("[session NewCodec] session secret is required")
	}

	encKey, err := deriveKey(secret, encryptionKeyInfo)
	if err != nil {
		return nil, fmt.Errorf("[session NewCodec] %w", err)
	}
	signKey, err := deriveKey(secret, signingKeyInfo)
	if err != nil {
		return nil, fmt.Errorf("[session NewCodec] %w", err)
	}

	c := &Codec{
		encKey:       encKey,
		signKey:      signKey,
		maxAge:       cfg.GetSessionMaxAge(),
		refreshCycle: cfg.GetTokenRefreshCycle(),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.nowFunc == nil {
		c.nowFunc = time.Now
	}
	return c, nil
}

func deriveKey(secret []byte, info string) ([]byte, error) {
	key := make([]byte, keyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// MaxAge is the lifetime of an envelope and its cookie.
func (c *Codec) MaxAge() time.Duration {
	return c.maxAge
}

// Encode seals tok into a new envelope issued now.
func (c *Codec) Encode(tok *token.Token) (string, error) {
	now := c.nowFunc()
	claims := envelopeClaims{
		Token: *tok,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tok.SessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signKey)
	if err != nil {
		return "", fmt.Errorf("[session Encode] sign: %w", err)
	}

	encrypter, err := jose.NewEncrypter(
		jose.A256GCM,
		jose.Recipient{Algorithm: jose.DIRECT, Key: c.encKey},
		(&jose.EncrypterOptions{}).WithType("JWT").WithContentType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("[session Encode] encrypter: %w", err)
	}

	object, err := encrypter.Encrypt([]byte(signed))
	if err != nil {
		return "", fmt.Errorf("[session Encode] encrypt: %w", err)
	}
	return object.CompactSerialize()
}

// Decode opens an envelope. Anything that fails to decrypt, verify or is past its
// expiry is reported as errors.ErrInvalidSession.
func (c *Codec) Decode(raw string) (*Envelope, error) {
	object, err := jose.ParseEncrypted(raw, []jose.KeyAlgorithm{jose.DIRECT}, []jose.ContentEncryption{jose.A256GCM})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidSession, "parse: %v", err)
	}

	inner, err := object.Decrypt(c.encKey)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidSession, "decrypt: %v", err)
	}

	var claims envelopeClaims
	_, err = jwt.ParseWithClaims(string(inner), &claims, func(*jwt.Token) (interface{}, error) {
		return c.signKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidSession, "verify: %v", err)
	}

	return &Envelope{
		Token:     claims.Token,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// NeedsReissue reports whether the cookie must be rewritten after evaluating env:
// the token changed, or the envelope is older than one refresh cycle.
func (c *Codec) NeedsReissue(env *Envelope, tok *token.Token) bool {
	if env == nil || tok == nil {
		return true
	}
	return env.Token != *tok || c.nowFunc().Sub(env.IssuedAt) >= c.refreshCycle
}
