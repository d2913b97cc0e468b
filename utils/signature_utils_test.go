package utils

import "testing"

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"ref":"refs/heads/main"}`)
	secret := "shhh"

	valid := SignWebhookBody(body, secret)

	tests := []struct {
		name     string
		body     []byte
		secret   string
		provided string
		want     bool
	}{
		{"valid signature", body, secret, valid, true},
		{"wrong secret", body, "other", valid, false},
		{"tampered body", []byte(`{"ref":"refs/heads/evil"}`), secret, valid, false},
		{"missing prefix", body, secret, valid[len(SignaturePrefix):], false},
		{"empty signature", body, secret, "", false},
		{"empty secret", body, "", valid, false},
		{"garbage value", body, secret, "sha256=zzzz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyWebhookSignature(tt.body, tt.secret, tt.provided); got != tt.want {
				t.Errorf("VerifyWebhookSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignWebhookBodyHasPrefix(t *testing.T) {
	sig := SignWebhookBody([]byte("payload"), "secret")
	if len(sig) != len(SignaturePrefix)+64 {
		t.Fatalf("signature has unexpected length: %d", len(sig))
	}
	if sig[:len(SignaturePrefix)] != SignaturePrefix {
		t.Fatalf("signature missing prefix: %s", sig)
	}
}
