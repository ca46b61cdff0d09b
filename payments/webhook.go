package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// webhookTolerance bounds how old a signed webhook may be before it is
// treated as a replay.
const webhookTolerance = 5 * time.Minute

// VerifyWebhookSignature checks the processor's signature header, which has
// the form "t=<unix>,v1=<hex hmac>" with the HMAC-SHA256 taken over
// "<unix>.<payload>".
func VerifyWebhookSignature(payload []byte, header, secret string) error {
	return verifyWebhookSignatureAt(payload, header, secret, time.Now())
}

func verifyWebhookSignatureAt(payload []byte, header, secret string, now time.Time) error {
	if header == "" {
		return fmt.Errorf("missing signature header")
	}

	var timestamp int64
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid signature timestamp: %v", err)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return fmt.Errorf("malformed signature header")
	}

	if math.Abs(now.Sub(time.Unix(timestamp, 0)).Seconds()) > webhookTolerance.Seconds() {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return fmt.Errorf("no matching signature")
}
