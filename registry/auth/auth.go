// Package auth implements the registry's minimal authentication scheme: a
// /token endpoint that exchanges HTTP Basic credentials for an HMAC-signed
// opaque bearer token, and middleware that verifies that token on protected
// requests.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Principal is the authenticated identity attached to a request context.
type Principal struct {
	Name      string
	Anonymous bool
}

// AnonymousPrincipal is used for requests carrying no credentials.
var AnonymousPrincipal = Principal{Anonymous: true}

// TokenExpiry is how long an issued bearer token remains valid.
const TokenExpiry = time.Hour

// IssueToken mints an opaque bearer token of the form "sub.exp.sig", where
// sig is the base64url HMAC-SHA256 of "sub.exp" under secret.
func IssueToken(secret, subject string) string {
	exp := time.Now().Add(TokenExpiry).Unix()
	return signToken(secret, subject, exp)
}

func signToken(secret, subject string, exp int64) string {
	payload := fmt.Sprintf("%s.%d", subject, exp)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return payload + "." + sig
}

// VerifyToken validates a bearer token's signature and expiry, returning
// the authenticated Principal.
func VerifyToken(secret, token string) (Principal, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Principal{}, fmt.Errorf("malformed token")
	}

	subject, expStr, sig := parts[0], parts[1], parts[2]
	payload := subject + "." + expStr

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	expectedSig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(sig), []byte(expectedSig)) != 1 {
		return Principal{}, fmt.Errorf("invalid token signature")
	}

	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return Principal{}, fmt.Errorf("malformed token expiry")
	}
	if time.Now().Unix() > exp {
		return Principal{}, fmt.Errorf("token expired")
	}

	return Principal{Name: subject}, nil
}

// Challenge formats the WWW-Authenticate header for a 401 response.
func Challenge(accessURL, host, reason string) string {
	h := fmt.Sprintf(`Bearer realm=%q,service=%q,scope="access"`, accessURL+"/token", host)
	if reason != "" {
		h += fmt.Sprintf(`,error=%q`, reason)
	}
	return h
}
