package oauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	// ContinuationCookie carries the post-login destination across the
	// provider round trip, scoped to the OAuth routes only.
	ContinuationCookie = "oauth_return_to"

	// continuationPath keeps the cookie off every other route.
	continuationPath = "/oauth2"

	// ContinuationTTL bounds how long a pending destination stays valid.
	ContinuationTTL = 180 * time.Second
)

// Carrier signs, stores and resolves the return destination of a login
// round trip. The destination leaves the server inside an HMAC-signed
// cookie, so a tampered or expired value degrades to "no destination"
// instead of an open redirect.
type Carrier struct {
	secret []byte
	secure bool
	now    func() time.Time
}

// NewCarrier creates a Carrier signing with the given secret. In dev
// mode the cookie is sent without the Secure attribute so plain-HTTP
// setups keep working.
func NewCarrier(secret string, devMode bool) *Carrier {
	return &Carrier{
		secret: []byte(secret),
		secure: !devMode,
		now:    time.Now,
	}
}

// Persist stores the destination in the signed continuation cookie.
// An empty destination writes nothing.
func (cr *Carrier) Persist(c *fiber.Ctx, destination string) {
	if destination == "" {
		return
	}

	c.Cookie(&fiber.Cookie{
		Name:     ContinuationCookie,
		Value:    cr.encode(destination, cr.now()),
		Path:     continuationPath,
		MaxAge:   int(ContinuationTTL.Seconds()),
		Secure:   cr.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Resolve returns the destination for the current request. A return_to
// query parameter always wins over the cookie; fromCookie reports which
// source supplied the value. Any decode, signature or expiry failure
// yields no destination.
func (cr *Carrier) Resolve(c *fiber.Ctx) (destination string, fromCookie bool) {
	if q := c.Query("return_to"); q != "" {
		return q, false
	}

	destination, ok := cr.decode(c.Cookies(ContinuationCookie))
	if !ok {
		return "", false
	}

	return destination, true
}

// Clear expires the continuation cookie once the destination has been
// consumed, so a later login cannot replay it.
func (cr *Carrier) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     ContinuationCookie,
		Value:    "",
		Path:     continuationPath,
		Expires:  cr.now().Add(-time.Hour),
		Secure:   cr.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// encode builds "payload.mac" where the payload is the issue time plus
// the URL-encoded destination and the mac covers the whole payload.
func (cr *Carrier) encode(destination string, issued time.Time) string {
	payload := strconv.FormatInt(issued.Unix(), 10) + ":" + url.QueryEscape(destination)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))

	return encoded + "." + cr.sign(encoded)
}

// decode verifies the signature and the TTL and returns the destination.
func (cr *Carrier) decode(value string) (string, bool) {
	if value == "" {
		return "", false
	}

	encoded, mac, found := strings.Cut(value, ".")
	if !found {
		return "", false
	}

	if !hmac.Equal([]byte(cr.sign(encoded)), []byte(mac)) {
		return "", false
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}

	issuedPart, destPart, found := strings.Cut(string(raw), ":")
	if !found {
		return "", false
	}

	issued, err := strconv.ParseInt(issuedPart, 10, 64)
	if err != nil {
		return "", false
	}

	if cr.now().Sub(time.Unix(issued, 0)) > ContinuationTTL {
		return "", false
	}

	destination, err := url.QueryUnescape(destPart)
	if err != nil || destination == "" {
		return "", false
	}

	return destination, true
}

func (cr *Carrier) sign(payload string) string {
	mac := hmac.New(sha256.New, cr.secret)
	mac.Write([]byte(payload))

	return hex.EncodeToString(mac.Sum(nil))
}
