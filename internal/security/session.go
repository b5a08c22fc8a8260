package security

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DeviceCookieName holds the signed device token.
const DeviceCookieName = "portal_device"

const deviceIssuer = "learnerportal"

var ErrInvalidDeviceToken = errors.New("invalid device token")

// DeviceTokens issues and verifies signed device identifiers. A device ID
// scopes the persisted progress and remembered learner of one browser.
type DeviceTokens struct {
	secret []byte
	ttl    time.Duration
}

type deviceClaims struct {
	jwt.RegisteredClaims
}

// NewDeviceTokens creates a token issuer signing with secret (HS256).
func NewDeviceTokens(secret string, ttl time.Duration) *DeviceTokens {
	return &DeviceTokens{secret: []byte(secret), ttl: ttl}
}

// TTL returns how long issued tokens stay valid.
func (d *DeviceTokens) TTL() time.Duration {
	return d.ttl
}

// Issue creates a token for deviceID, or for a new device when deviceID is
// empty. It returns the device ID and the signed token.
func (d *DeviceTokens) Issue(deviceID string) (string, string, error) {
	if deviceID == "" {
		deviceID = uuid.New().String()
	}
	now := time.Now()
	claims := deviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    deviceIssuer,
			Subject:   deviceID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(d.secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign device token: %w", err)
	}
	return deviceID, signed, nil
}

// Parse verifies a token and returns its device ID.
func (d *DeviceTokens) Parse(token string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(deviceIssuer),
	)
	claims := &deviceClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return d.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidDeviceToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", ErrInvalidDeviceToken
	}
	return id.String(), nil
}

// IsSecureRequest determines if the request is over HTTPS
// Checks TLS connection, X-Forwarded-Proto header (for reverse proxies), and URL scheme
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		return true
	}
	return r.URL.Scheme == "https"
}

// CreateDeviceCookie creates the device cookie with proper security flags
func CreateDeviceCookie(r *http.Request, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     DeviceCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}
