package crypto

import (
	"strings"
	"testing"
)

// ============================================================
// Тесты SignCleartext / VerifyCleartext
// ============================================================

func TestSignCleartext_RoundTrip(t *testing.T) {
	token := "SigningTestRobotToken001"
	identity, err := DeriveIdentity(token)
	if err != nil {
		t.Fatalf("DeriveIdentity failed: %v", err)
	}

	invoice := "lnbc50u1p3xyzsigningtestinvoice"
	signed, err := SignCleartext(invoice, identity.EncPrivKey, token)
	if err != nil {
		t.Fatalf("SignCleartext failed: %v", err)
	}

	// Инвойс остается читаемым в cleartext-формате
	if !strings.Contains(signed, invoice) {
		t.Error("signed message does not contain the cleartext invoice")
	}

	text, err := VerifyCleartext(signed, identity.PubKey)
	if err != nil {
		t.Fatalf("VerifyCleartext failed: %v", err)
	}
	if text != invoice {
		t.Errorf("verified text mismatch: %q", text)
	}
}

func TestSignCleartext_WrongToken(t *testing.T) {
	token := "SigningTestRobotToken002"
	identity, err := DeriveIdentity(token)
	if err != nil {
		t.Fatalf("DeriveIdentity failed: %v", err)
	}

	// Чужой токен не может расшифровать приватный ключ
	if _, err := SignCleartext("lnbc1...", identity.EncPrivKey, "CompletelyOtherToken0001"); err == nil {
		t.Error("expected error when signing with a wrong token")
	}
}

func TestVerifyCleartext_TamperedMessage(t *testing.T) {
	token := "SigningTestRobotToken003"
	identity, err := DeriveIdentity(token)
	if err != nil {
		t.Fatalf("DeriveIdentity failed: %v", err)
	}

	signed, err := SignCleartext("lnbc100n1original", identity.EncPrivKey, token)
	if err != nil {
		t.Fatalf("SignCleartext failed: %v", err)
	}

	tampered := strings.Replace(signed, "original", "tampered", 1)
	if _, err := VerifyCleartext(tampered, identity.PubKey); err == nil {
		t.Error("tampered message passed verification")
	}
}
