package authinfo

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// decodeClaims extracts the payload of a JWT-like token without validating
// the signature; used only for local display and refresh scheduling.
func decodeClaims(token string) (map[string]any, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, false
	}
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, false
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, false
	}
	return claims, true
}

func EmailFromToken(token string) string {
	claims, ok := decodeClaims(token)
	if !ok {
		return ""
	}
	email, _ := claims["email"].(string)
	return strings.TrimSpace(email)
}

// ExpiryFromToken reads the exp claim. Servers disagree about the numeric
// encoding, so tolerate the usual variants.
func ExpiryFromToken(token string) (time.Time, bool) {
	claims, ok := decodeClaims(token)
	if !ok {
		return time.Time{}, false
	}
	expAny, ok := claims["exp"]
	if !ok {
		return time.Time{}, false
	}
	var expSeconds int64
	switch v := expAny.(type) {
	case float64:
		expSeconds = int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			expSeconds = n
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			expSeconds = n
		}
	}
	if expSeconds <= 0 {
		return time.Time{}, false
	}
	return time.Unix(expSeconds, 0).UTC(), true
}
