package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func signPayload(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"type":"checkout.session.completed"}`)
	secret := "whsec_test"
	now := time.Unix(1700000000, 0)

	valid := signPayload(payload, secret, now.Unix())
	if err := verifyWebhookSignatureAt(payload, valid, secret, now); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	if err := verifyWebhookSignatureAt(payload, valid, "whsec_other", now); err == nil {
		t.Fatal("signature with the wrong secret must be rejected")
	}

	tampered := append([]byte{}, payload...)
	tampered[0] = '['
	if err := verifyWebhookSignatureAt(tampered, valid, secret, now); err == nil {
		t.Fatal("tampered payload must be rejected")
	}

	stale := signPayload(payload, secret, now.Add(-time.Hour).Unix())
	if err := verifyWebhookSignatureAt(payload, stale, secret, now); err == nil {
		t.Fatal("stale timestamp must be rejected")
	}

	if err := verifyWebhookSignatureAt(payload, "", secret, now); err == nil {
		t.Fatal("missing header must be rejected")
	}
}
