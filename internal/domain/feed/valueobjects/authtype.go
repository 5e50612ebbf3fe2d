package valueobjects

// AuthType selects how the TAXII client authenticates against a feed.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthAPIKey AuthType = "apikey"
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
	AuthJWT    AuthType = "jwt"
)

// IsValid reports whether the auth type is known.
func (a AuthType) IsValid() bool {
	switch a {
	case AuthNone, AuthAPIKey, AuthBasic, AuthBearer, AuthJWT:
		return true
	}
	return false
}

func (a AuthType) String() string {
	return string(a)
}
