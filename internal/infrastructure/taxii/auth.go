package taxii

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stixgate/internal/domain/feed"
	vo "stixgate/internal/domain/feed/valueobjects"
)

// jwtTokenLifetime bounds self-minted tokens; remote servers reject stale
// tokens anyway, so each poll mints a fresh one.
const jwtTokenLifetime = 5 * time.Minute

// Authenticator attaches feed credentials to an outbound request.
type Authenticator interface {
	Apply(req *http.Request) error
}

// NewAuthenticator builds the authenticator matching a feed's auth type.
func NewAuthenticator(source *feed.Source) (Authenticator, error) {
	switch source.AuthType() {
	case vo.AuthNone:
		return noneAuth{}, nil
	case vo.AuthAPIKey:
		key := source.Credential("api_key")
		if key == "" {
			return nil, fmt.Errorf("feed %q uses apikey auth but has no api_key credential", source.Name())
		}
		header := source.Credential("api_key_header")
		if header == "" {
			header = "X-API-Key"
		}
		return apiKeyAuth{header: header, key: key}, nil
	case vo.AuthBasic:
		username := source.Credential("username")
		password := source.Credential("password")
		if username == "" {
			return nil, fmt.Errorf("feed %q uses basic auth but has no username credential", source.Name())
		}
		return basicAuth{username: username, password: password}, nil
	case vo.AuthBearer:
		token := source.Credential("token")
		if token == "" {
			return nil, fmt.Errorf("feed %q uses bearer auth but has no token credential", source.Name())
		}
		return bearerAuth{token: token}, nil
	case vo.AuthJWT:
		secret := source.Credential("jwt_secret")
		if secret == "" {
			return nil, fmt.Errorf("feed %q uses jwt auth but has no jwt_secret credential", source.Name())
		}
		return &jwtAuth{
			secret:   []byte(secret),
			subject:  source.Credential("jwt_subject"),
			audience: source.Credential("jwt_audience"),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported auth type: %s", source.AuthType())
	}
}

type noneAuth struct{}

func (noneAuth) Apply(*http.Request) error {
	return nil
}

type apiKeyAuth struct {
	header string
	key    string
}

func (a apiKeyAuth) Apply(req *http.Request) error {
	req.Header.Set(a.header, a.key)
	return nil
}

type basicAuth struct {
	username string
	password string
}

func (a basicAuth) Apply(req *http.Request) error {
	req.SetBasicAuth(a.username, a.password)
	return nil
}

type bearerAuth struct {
	token string
}

func (a bearerAuth) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+a.token)
	return nil
}

// jwtAuth mints a short-lived HS256 token per request.
type jwtAuth struct {
	secret   []byte
	subject  string
	audience string
}

func (a *jwtAuth) Apply(req *http.Request) error {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   a.subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtTokenLifetime)),
	}
	if a.audience != "" {
		claims.Audience = jwt.ClaimStrings{a.audience}
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return fmt.Errorf("failed to sign jwt: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
