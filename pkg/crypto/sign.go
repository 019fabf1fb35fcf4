package crypto

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Ошибки подписи
var (
	ErrInvalidPrivateKey = errors.New("invalid private key material")
	ErrInvalidSignedText = errors.New("invalid signed message format")
)

// Маркеры cleartext-подписанного сообщения
const (
	beginMessage   = "-----BEGIN ROBOT SIGNED MESSAGE-----"
	beginSignature = "-----BEGIN ROBOT SIGNATURE-----"
	endSignature   = "-----END ROBOT SIGNATURE-----"
)

// SignCleartext подписывает текст (lightning-инвойс) приватным ключом робота.
//
// encPrivKey расшифровывается ключом, выведенным из токена — токен выступает
// парольной фразой ключа. Результат — cleartext-подпись: исходный текст
// остается читаемым, подпись идет следом в base64.
func SignCleartext(text, encPrivKey, token string) (string, error) {
	wrapKey, err := deriveWrapKey(token)
	if err != nil {
		return "", err
	}

	privBytes, err := Decrypt(encPrivKey, wrapKey)
	if err != nil {
		return "", fmt.Errorf("cannot unlock private key: %w", err)
	}
	if len(privBytes) != ed25519.PrivateKeySize {
		return "", ErrInvalidPrivateKey
	}

	sig := ed25519.Sign(ed25519.PrivateKey(privBytes), []byte(text))

	var b strings.Builder
	b.WriteString(beginMessage)
	b.WriteString("\n")
	b.WriteString(text)
	b.WriteString("\n")
	b.WriteString(beginSignature)
	b.WriteString("\n")
	b.WriteString(base64.StdEncoding.EncodeToString(sig))
	b.WriteString("\n")
	b.WriteString(endSignature)
	return b.String(), nil
}

// VerifyCleartext проверяет cleartext-подпись и возвращает подписанный текст.
// Используется в тестах и при валидации перед отправкой координатору.
func VerifyCleartext(signed, pubKeyBase64 string) (string, error) {
	pub, err := base64.StdEncoding.DecodeString(pubKeyBase64)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return "", ErrInvalidPrivateKey
	}

	rest, ok := strings.CutPrefix(signed, beginMessage+"\n")
	if !ok {
		return "", ErrInvalidSignedText
	}
	text, rest, ok := strings.Cut(rest, "\n"+beginSignature+"\n")
	if !ok {
		return "", ErrInvalidSignedText
	}
	sigBase64, _, ok := strings.Cut(rest, "\n"+endSignature)
	if !ok {
		return "", ErrInvalidSignedText
	}

	sig, err := base64.StdEncoding.DecodeString(sigBase64)
	if err != nil {
		return "", ErrInvalidSignedText
	}

	if !ed25519.Verify(ed25519.PublicKey(pub), []byte(text), sig) {
		return "", ErrInvalidSignedText
	}
	return text, nil
}
