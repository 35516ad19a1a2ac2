package search

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNoValidity is returned for a secured key without validUntil
var ErrNoValidity = errors.New("secured api key has no validUntil")

// SecuredAPIKeyRestriction lists what a secured key is limited to
type SecuredAPIKeyRestriction struct {
	Query           *Query
	ValidUntil      time.Time
	RestrictIndices []string
	RestrictSources []string
	UserToken       string
}

func (r *SecuredAPIKeyRestriction) encode() string {
	if r == nil {
		return ""
	}

	v := r.Query.Values()
	if !r.ValidUntil.IsZero() {
		v.Set("validUntil", strconv.FormatInt(r.ValidUntil.Unix(), 10))
	}
	if len(r.RestrictIndices) > 0 {
		v.Set("restrictIndices", strings.Join(r.RestrictIndices, ","))
	}
	if len(r.RestrictSources) > 0 {
		v.Set("restrictSources", strings.Join(r.RestrictSources, ","))
	}
	if r.UserToken != "" {
		v.Set("userToken", r.UserToken)
	}
	return v.Encode()
}

// GenerateSecuredAPIKey derives a key restricted by r from parentKey.
// No request is sent: the service checks the embedded signature.
func GenerateSecuredAPIKey(parentKey string, r *SecuredAPIKeyRestriction) (string, error) {
	if strings.TrimSpace(parentKey) == "" {
		return "", fmt.Errorf("%w: parent api key is required", ErrInvalidArgument)
	}

	params := r.encode()

	mac := hmac.New(sha256.New, []byte(parentKey))
	mac.Write([]byte(params))
	signature := hex.EncodeToString(mac.Sum(nil))

	return base64.StdEncoding.EncodeToString([]byte(signature + params)), nil
}

// SecuredAPIKeyRemainingValidity returns how long a secured key is still
// valid at now. The result is negative once the key has expired.
func SecuredAPIKeyRemainingValidity(securedKey string, now time.Time) (time.Duration, error) {
	decoded, err := base64.StdEncoding.DecodeString(securedKey)
	if err != nil {
		return 0, fmt.Errorf("%w: secured api key is not base64: %w", ErrInvalidArgument, err)
	}

	signatureLen := hex.EncodedLen(sha256.Size)
	if len(decoded) < signatureLen {
		return 0, fmt.Errorf("%w: secured api key is too short", ErrInvalidArgument)
	}

	params, err := url.ParseQuery(string(decoded[signatureLen:]))
	if err != nil {
		return 0, fmt.Errorf("%w: secured api key parameters: %w", ErrInvalidArgument, err)
	}

	raw := params.Get("validUntil")
	if raw == "" {
		return 0, ErrNoValidity
	}
	validUntil, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid validUntil '%s'", ErrInvalidArgument, raw)
	}

	return time.Unix(validUntil, 0).Sub(now), nil
}
