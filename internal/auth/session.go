// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MaxUsernameLen bounds display names carried in tokens.
const MaxUsernameLen = 24

// privateKey and publicKey are used for signing and verifying JWT tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenTTL is how long a token stays valid (0 => never expires).
	tokenTTL time.Duration
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is who a token speaks for. Players are guests: the ID is minted with the
// token and the name is whatever they chose.
type Identity struct {
	PlayerID string
	Username string
}

type guestClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// parseTokenExpireTime reads TOKEN_EXPIRE_TIME ("never", "0", or a Go duration).
func parseTokenExpireTime() error {
	duration := os.Getenv("TOKEN_EXPIRE_TIME")
	if duration == "never" || duration == "0" || duration == "" {
		tokenTTL = 0
		return nil
	}
	d, err := time.ParseDuration(duration)
	if err != nil {
		return fmt.Errorf("failed to parse token expire time: %w", err)
	}
	tokenTTL = d
	return nil
}

// Init generates a fresh ed25519 key pair at runtime and sets the token expiration.
// Tokens issued before a restart stop verifying.
func Init() error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return parseTokenExpireTime()
}

// InitFromPath reads ed25519 private/public keys from file and sets the token expiration.
func InitFromPath(privatePath, publicPath string) error {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}
	if len(privateKeyData) != ed25519.PrivateKeySize || len(publicKeyData) != ed25519.PublicKeySize {
		return errors.New("key files do not hold raw ed25519 keys")
	}

	privateKey = ed25519.PrivateKey(privateKeyData)
	publicKey = ed25519.PublicKey(publicKeyData)
	return parseTokenExpireTime()
}

// NormalizeUsername trims the name and cuts it to MaxUsernameLen runes. An empty name
// becomes "Guest-" plus the first characters of the player ID.
func NormalizeUsername(name, playerID string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxUsernameLen {
		name = string([]rune(name)[:MaxUsernameLen])
	}
	if name == "" {
		suffix := playerID
		if len(suffix) > 4 {
			suffix = suffix[:4]
		}
		name = "Guest-" + strings.ToUpper(suffix)
	}
	return name
}

// NewGuest mints a player ID and a signed token for it.
func NewGuest(username string) (Identity, string, error) {
	id := uuid.NewString()
	ident := Identity{PlayerID: id, Username: NormalizeUsername(username, id)}
	token, err := CreateToken(ident)
	if err != nil {
		return Identity{}, "", err
	}
	return ident, token, nil
}

// CreateToken signs a JWT with "sub" = player ID and "name" = username.
func CreateToken(ident Identity) (string, error) {
	if privateKey == nil {
		return "", errors.New("auth keys are not initialized")
	}
	claims := guestClaims{
		Name: ident.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  ident.PlayerID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// ParseToken verifies a JWT string and returns the identity it carries.
func ParseToken(tokenString string) (Identity, error) {
	var claims guestClaims
	t, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !t.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return Identity{
		PlayerID: claims.Subject,
		Username: NormalizeUsername(claims.Name, claims.Subject),
	}, nil
}
