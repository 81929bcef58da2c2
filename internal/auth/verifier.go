package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/storefront/internal/common"
)

// Claims is the identity carried by a verified access token.
type Claims struct {
	UserID string
	Phone  string
	Role   string
}

// VerifierConfig configures a Verifier.
type VerifierConfig struct {
	Secret    string
	Issuer    string
	Audience  string
	ClockSkew time.Duration
}

// Verifier checks HS256 access tokens minted by the hosted auth backend.
// The storefront never issues tokens itself.
type Verifier struct {
	secret    []byte
	issuer    string
	audience  string
	clockSkew time.Duration
	now       func() time.Time
}

// NewVerifier constructs a Verifier.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	return &Verifier{
		secret:    []byte(secret),
		issuer:    strings.TrimSpace(cfg.Issuer),
		audience:  strings.TrimSpace(cfg.Audience),
		clockSkew: cfg.ClockSkew,
		now:       time.Now,
	}, nil
}

// WithNow overrides the verifier clock.
func (v *Verifier) WithNow(now func() time.Time) {
	if now != nil {
		v.now = now
	}
}

// Verify parses and validates token and returns its claims.
func (v *Verifier) Verify(token string) (Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Claims{}, unauthorized(errNoToken)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return Claims{}, unauthorized(err)
	}
	if algorithm != jwa.HS256 {
		return Claims{}, unauthorized(fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, v.secret), jwt.WithValidate(false))
	if err != nil {
		return Claims{}, unauthorized(err)
	}
	if err := v.validate(parsed); err != nil {
		return Claims{}, unauthorized(err)
	}
	return Claims{
		UserID: parsed.Subject(),
		Phone:  stringClaim(parsed, "phone"),
		Role:   roleClaim(parsed),
	}, nil
}

// validate checks the registered claims against the verifier clock. Tokens
// must name a subject and expire.
func (v *Verifier) validate(tok jwt.Token) error {
	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(v.now)),
		jwt.WithRequiredClaim(jwt.SubjectKey),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
	}
	if v.clockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.clockSkew))
	}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		options = append(options, jwt.WithAudience(v.audience))
	}
	return jwt.Validate(tok, options...)
}

func unauthorized(err error) error {
	return common.NewAppError("UNAUTHORIZED", "missing or invalid token", http.StatusUnauthorized, err)
}

// roleClaim reads app_metadata.role, falling back to a top level role claim.
// Tokens without either are customers.
func roleClaim(tok jwt.Token) string {
	if raw, ok := tok.Get("app_metadata"); ok {
		if meta, ok := raw.(map[string]any); ok {
			if role, ok := meta["role"].(string); ok && knownRole(role) {
				return role
			}
		}
	}
	if role := stringClaim(tok, "role"); knownRole(role) {
		return role
	}
	return common.RoleCustomer
}

func knownRole(role string) bool {
	switch role {
	case common.RoleCustomer, common.RoleSeller, common.RoleAdmin:
		return true
	}
	return false
}

func stringClaim(tok jwt.Token, name string) string {
	raw, ok := tok.Get(name)
	if !ok {
		return ""
	}
	s, _ := raw.(string)
	return s
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) != 1 {
		return "", fmt.Errorf("auth: expected one signature, got %d", len(signatures))
	}
	headers := signatures[0].ProtectedHeaders()
	if headers == nil {
		return "", errors.New("auth: token missing protected headers")
	}
	alg := headers.Algorithm()
	switch alg {
	case "":
		return "", errors.New("auth: token missing algorithm")
	case jwa.NoSignature:
		return "", errors.New("auth: token uses none algorithm")
	}
	return alg, nil
}
