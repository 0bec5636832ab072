package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zenhq/helpdesk/internal/models"
)

// DefaultResetTokenMaxAge bounds how long a password reset token stays valid.
const DefaultResetTokenMaxAge = 24 * time.Hour

// MakeResetToken builds a password reset token bound to the user's ID and
// current password hash. Changing the password invalidates every
// outstanding token without server-side state.
func MakeResetToken(secret string, user *models.User, now time.Time) string {
	ts := strconv.FormatInt(now.UTC().Unix(), 10)
	return ts + "-" + resetSignature(secret, user, ts)
}

// CheckResetToken validates a reset token against the user's current state
// and the max age window.
func CheckResetToken(secret string, user *models.User, token string, maxAge time.Duration, now time.Time) bool {
	if user == nil {
		return false
	}
	ts, sig, found := strings.Cut(token, "-")
	if !found {
		return false
	}
	issued, errParse := strconv.ParseInt(ts, 10, 64)
	if errParse != nil {
		return false
	}
	age := now.UTC().Sub(time.Unix(issued, 0).UTC())
	if age < 0 || age > maxAge {
		return false
	}
	expected := resetSignature(secret, user, ts)
	return hmac.Equal([]byte(sig), []byte(expected))
}

// EncodeUserID encodes a user ID for use in reset URLs.
func EncodeUserID(id uint64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(id, 10)))
}

// DecodeUserID reverses EncodeUserID.
func DecodeUserID(encoded string) (uint64, error) {
	raw, errDecode := base64.RawURLEncoding.DecodeString(encoded)
	if errDecode != nil {
		return 0, fmt.Errorf("security: decode user id: %w", errDecode)
	}
	id, errParse := strconv.ParseUint(string(raw), 10, 64)
	if errParse != nil {
		return 0, fmt.Errorf("security: decode user id: %w", errParse)
	}
	return id, nil
}

func resetSignature(secret string, user *models.User, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d:%s:%s", user.ID, user.Password, ts)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
