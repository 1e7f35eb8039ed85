// Package totp implements RFC 6238 time-based one-time passwords over
// HMAC-SHA1 with 6 digits and a 30-second time step.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// secretBytes yields a 32-character base32 secret.
	secretBytes = 20

	// Digits is the length of generated codes.
	Digits = 6

	// Period is the time-step size in seconds.
	Period = 30

	// skew is the number of adjacent time steps accepted on either side
	// of the current one, to tolerate clock drift.
	skew = 1
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret returns a new cryptographically random secret encoded
// as a 32-character base32 string (alphabet A-Z, 2-7).
func GenerateSecret() (string, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return b32.EncodeToString(raw), nil
}

// ProvisioningURI builds an otpauth:// URI for authenticator apps. The
// label and issuer are percent-encoded.
func ProvisioningURI(secret, account, issuer string) string {
	label := url.PathEscape(issuer + ":" + account)

	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	v.Set("algorithm", "SHA1")
	v.Set("digits", fmt.Sprintf("%d", Digits))
	v.Set("period", fmt.Sprintf("%d", Period))

	return "otpauth://totp/" + label + "?" + v.Encode()
}

// GenerateCode returns the 6-digit code for the secret at the given
// instant.
func GenerateCode(secret string, at time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return hotpCode(key, at.Unix()/Period), nil
}

// Verify reports whether code matches the secret at the given instant,
// accepting the immediately adjacent time steps for clock skew. No
// replay tracking is performed: a valid code may be reused until it
// falls outside the validity window.
func Verify(secret, code string, at time.Time) (bool, error) {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != Digits || !isNumeric(trimmed) {
		return false, nil
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return false, err
	}

	base := at.Unix() / Period
	for step := int64(-skew); step <= skew; step++ {
		counter := base + step
		if counter < 0 {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(hotpCode(key, counter)), []byte(trimmed)) == 1 {
			return true, nil
		}
	}
	return false, nil
}

func decodeSecret(secret string) ([]byte, error) {
	key, err := b32.DecodeString(strings.ToUpper(strings.TrimSpace(secret)))
	if err != nil {
		return nil, errors.New("malformed base32 totp secret")
	}
	if len(key) == 0 {
		return nil, errors.New("empty totp secret")
	}
	return key, nil
}

func hotpCode(key []byte, counter int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < Digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", Digits, bin%mod)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
