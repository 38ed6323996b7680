package reconciliation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/orris-inc/paysync/internal/shared/logger"
)

var (
	// ErrSignatureMissing is returned when a secret is configured but the
	// signature or request id header is absent.
	ErrSignatureMissing = errors.New("missing signature headers")

	// ErrSignatureInvalid is returned for malformed, mismatched or stale signatures.
	ErrSignatureInvalid = errors.New("invalid signature")
)

// VerifierConfig configures signature verification.
type VerifierConfig struct {
	Secret        string
	AllowUnsigned bool
	// Tolerance bounds the age of the signed timestamp. Zero disables the check.
	Tolerance time.Duration
}

// SignatureVerifier authenticates notifications with the gateway's
// HMAC-SHA256 scheme.
type SignatureVerifier struct {
	cfg    VerifierConfig
	clock  Clock
	logger logger.Interface
}

func NewSignatureVerifier(cfg VerifierConfig, clock Clock, logger logger.Interface) *SignatureVerifier {
	if clock == nil {
		clock = SystemClock()
	}
	return &SignatureVerifier{
		cfg:    cfg,
		clock:  clock,
		logger: logger,
	}
}

// Enabled reports whether a secret is configured.
func (v *SignatureVerifier) Enabled() bool {
	return v.cfg.Secret != ""
}

// Verify checks header (ts=<ts>,v1=<hex>) against the manifest built from
// dataID and requestID. It reports whether a signature was actually checked.
func (v *SignatureVerifier) Verify(header, requestID, dataID string) (bool, error) {
	if !v.Enabled() {
		return false, nil
	}

	header = strings.TrimSpace(header)
	requestID = strings.TrimSpace(requestID)
	if header == "" || requestID == "" {
		if v.cfg.AllowUnsigned {
			v.logger.Warnw("accepting notification without signature headers",
				"data_id", dataID,
				"has_signature", header != "",
				"has_request_id", requestID != "",
			)
			return false, nil
		}
		return false, ErrSignatureMissing
	}

	ts, v1 := parseSignatureHeader(header)
	if ts == "" || v1 == "" {
		return false, fmt.Errorf("%w: malformed header", ErrSignatureInvalid)
	}

	expected := Sign(v.cfg.Secret, dataID, requestID, ts)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return false, fmt.Errorf("%w: digest mismatch", ErrSignatureInvalid)
	}

	if v.cfg.Tolerance > 0 {
		signedAt, err := parseSignatureTimestamp(ts)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		}
		age := v.clock.Now().Sub(signedAt)
		if age < 0 {
			age = -age
		}
		if age > v.cfg.Tolerance {
			return false, fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
		}
	}

	return true, nil
}

// Sign computes the hex digest the gateway sends as v1.
func Sign(secret, dataID, requestID, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(Manifest(dataID, requestID, ts)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Manifest builds the signed string. Alphanumeric ids are lower-cased, as
// the gateway does when signing.
func Manifest(dataID, requestID, ts string) string {
	if isAlphanumeric(dataID) {
		dataID = strings.ToLower(dataID)
	}
	return fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)
}

func parseSignatureHeader(header string) (ts, v1 string) {
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	return ts, v1
}

// parseSignatureTimestamp accepts unix seconds or milliseconds.
func parseSignatureTimestamp(ts string) (time.Time, error) {
	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", ts)
	}
	if n > 1e12 {
		return time.UnixMilli(n).UTC(), nil
	}
	return time.Unix(n, 0).UTC(), nil
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
