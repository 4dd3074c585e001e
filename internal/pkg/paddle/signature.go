package paddle

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// TimestampTolerance is the accepted skew between the signature timestamp
// and the receiver clock, in either direction.
const TimestampTolerance = 300 * time.Second

// VerifyReason classifies the outcome of a signature check.
type VerifyReason string

const (
	ReasonValid                VerifyReason = "signature_valid"
	ReasonInvalidFormat        VerifyReason = "invalid_signature_format"
	ReasonTimestampTooOld      VerifyReason = "timestamp_too_old"
	ReasonMismatch             VerifyReason = "signature_mismatch"
	ReasonBypassedForDev       VerifyReason = "bypassed_for_development"
	ReasonMissingSigningSecret VerifyReason = "missing_signing_secret"
)

// VerifyResult carries the outcome of verifying one request.
type VerifyResult struct {
	Valid  bool
	Reason VerifyReason
}

// Verifier checks the Paddle-Signature header (ts=<unix>;h1=<hex>) against
// an HMAC-SHA256 over "<ts>:<raw body>".
type Verifier struct {
	secret     string
	production bool
	now        func() time.Time
}

// NewVerifier builds a Verifier. The bypass only applies to the exact
// environment value "dev"; any other value (including a misspelled one)
// counts as production and enforces signatures.
func NewVerifier(secret, environment string) *Verifier {
	return &Verifier{
		secret:     strings.TrimSpace(secret),
		production: strings.TrimSpace(environment) != "dev",
		now:        time.Now,
	}
}

// Verify validates the signature header against the raw request body.
//
// Outside production it always reports a bypass without touching the header;
// the bypass return sits inside the !production branch and is unreachable
// when the Verifier was built for production. In production a missing secret
// fails closed.
func (v *Verifier) Verify(rawBody []byte, signatureHeader string) VerifyResult {
	if !v.production {
		return VerifyResult{Valid: true, Reason: ReasonBypassedForDev}
	}
	if v.secret == "" {
		return VerifyResult{Valid: false, Reason: ReasonMissingSigningSecret}
	}

	ts, h1, ok := parseSignatureHeader(signatureHeader)
	if !ok {
		return VerifyResult{Valid: false, Reason: ReasonInvalidFormat}
	}

	diff := v.now().Unix() - ts
	if diff < 0 {
		diff = -diff
	}
	if diff > int64(TimestampTolerance.Seconds()) {
		return VerifyResult{Valid: false, Reason: ReasonTimestampTooOld}
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte(":"))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(h1))) {
		return VerifyResult{Valid: false, Reason: ReasonMismatch}
	}
	return VerifyResult{Valid: true, Reason: ReasonValid}
}

// parseSignatureHeader extracts ts and h1 from a semicolon-separated
// key=value header. Unknown keys are ignored.
func parseSignatureHeader(header string) (ts int64, h1 string, ok bool) {
	var tsRaw string
	for _, part := range strings.Split(strings.TrimSpace(header), ";") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "ts":
			tsRaw = kv[1]
		case "h1":
			h1 = kv[1]
		}
	}
	if tsRaw == "" || h1 == "" {
		return 0, "", false
	}
	parsed, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return parsed, h1, true
}
