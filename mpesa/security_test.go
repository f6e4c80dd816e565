package mpesa

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

// testCertificate builds a self-signed certificate and returns its PEM along
// with the private key for decryption checks.
func testCertificate(t *testing.T) ([]byte, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), key
}

func TestGenerateSecurityCredential(t *testing.T) {
	certPEM, key := testCertificate(t)

	credential, err := GenerateSecurityCredential(certPEM, "initiator-password")
	if err != nil {
		t.Fatalf("GenerateSecurityCredential() error = %v", err)
	}

	encrypted, err := base64.StdEncoding.DecodeString(credential)
	if err != nil {
		t.Fatalf("credential is not valid base64: %v", err)
	}

	plaintext, err := rsa.DecryptPKCS1v15(rand.Reader, key, encrypted)
	if err != nil {
		t.Fatalf("credential does not decrypt: %v", err)
	}
	if string(plaintext) != "initiator-password" {
		t.Errorf("decrypted = %q, want initiator-password", plaintext)
	}
}

func TestGenerateSecurityCredentialBadCert(t *testing.T) {
	if _, err := GenerateSecurityCredential([]byte("not a pem"), "pw"); err == nil {
		t.Error("expected error for invalid PEM input")
	}
}
