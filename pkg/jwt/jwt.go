package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// JWT header constants required by RFC 7519.
const (
	HeaderType      = "JWT"
	HeaderAlgorithm = "HS256"
)

// Header represents the JWT header as defined in RFC 7515.
type Header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// StandardClaims holds the registered claims from RFC 7519 Section 4.1 that
// tenantkit cares about. Temporal fields are Unix timestamps.
type StandardClaims struct {
	ID        string `json:"jti,omitempty"`
	Subject   string `json:"sub,omitempty"`
	Issuer    string `json:"iss,omitempty"`
	Audience  string `json:"aud,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	NotBefore int64  `json:"nbf,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// Valid validates the temporal claims against the current time.
// Zero values are treated as unset per RFC 7519 and are ignored.
func (c StandardClaims) Valid() error {
	now := time.Now().Unix()
	if c.ExpiresAt > 0 && now > c.ExpiresAt {
		return ErrExpiredToken
	}
	if c.NotBefore > 0 && now < c.NotBefore {
		return ErrInvalidToken
	}
	return nil
}

// TenantClaims is the claim set minted by the identity gateway for tenant
// traffic. The custom: prefix matches the attribute naming used by the
// upstream user pool, so tokens issued there decode without translation.
type TenantClaims struct {
	StandardClaims
	TenantID   string `json:"custom:tenant_id,omitempty"`
	TenantTier string `json:"custom:tenant_tier,omitempty"`
}

// Service signs and verifies tokens using HMAC-SHA256. The signing key is
// kept in memory only and should be at least 32 bytes.
type Service struct {
	signingKey []byte
}

// New creates a JWT service with the provided signing key.
func New(signingKey []byte) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	return &Service{signingKey: signingKey}, nil
}

// Generate creates a signed token with the given claims. Claims may be any
// JSON-serializable value.
func (s *Service) Generate(claims any) (string, error) {
	if claims == nil {
		return "", ErrMissingClaims
	}

	headerJSON, err := json.Marshal(Header{Type: HeaderType, Algorithm: HeaderAlgorithm})
	if err != nil {
		return "", fmt.Errorf("failed to marshal header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	payload := base64URLEncode(headerJSON) + "." + base64URLEncode(claimsJSON)
	return payload + "." + s.sign(payload), nil
}

// Parse verifies a token's signature and algorithm, then unmarshals its
// claims into the provided structure. Temporal claims are validated when the
// claims type implements Valid() error.
func (s *Service) Parse(tokenString string, claims any) error {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return ErrInvalidToken
	}

	payload := parts[0] + "." + parts[1]
	expected := s.sign(payload)
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expected)) != 1 {
		return ErrInvalidSignature
	}

	header, err := decodeHeader(parts[0])
	if err != nil {
		return err
	}
	if header.Algorithm != HeaderAlgorithm {
		return ErrUnexpectedSigningMethod
	}

	return decodeClaims(parts[1], claims)
}

// ParseUnverified decodes a token's claims WITHOUT checking the signature.
// It exists for the gateway-verified path: the API gateway has already
// validated the token cryptographically, so downstream services only need
// the claim payload. Never use this on tokens from an untrusted source.
func ParseUnverified(tokenString string, claims any) error {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return ErrInvalidToken
	}
	if _, err := decodeHeader(parts[0]); err != nil {
		return err
	}
	return decodeClaims(parts[1], claims)
}

func (s *Service) sign(payload string) string {
	h := hmac.New(sha256.New, s.signingKey)
	h.Write([]byte(payload))
	return base64URLEncode(h.Sum(nil))
}

func decodeHeader(encoded string) (Header, error) {
	raw, err := base64URLDecode(encoded)
	if err != nil {
		return Header{}, ErrInvalidToken
	}
	var header Header
	if err := json.Unmarshal(raw, &header); err != nil {
		return Header{}, ErrInvalidToken
	}
	return header, nil
}

func decodeClaims(encoded string, claims any) error {
	raw, err := base64URLDecode(encoded)
	if err != nil {
		return ErrInvalidToken
	}
	if err := json.Unmarshal(raw, claims); err != nil {
		return fmt.Errorf("failed to unmarshal claims: %w", err)
	}
	if validator, ok := claims.(interface{ Valid() error }); ok {
		return validator.Valid()
	}
	return nil
}

// base64URLEncode encodes without padding as required by RFC 7515.
func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// base64URLDecode accepts both padded and unpadded input since tokens from
// third-party issuers are not always strict about padding removal.
func base64URLDecode(s string) ([]byte, error) {
	if decoded, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return decoded, nil
	}
	return base64.URLEncoding.DecodeString(s)
}
