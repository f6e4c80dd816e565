package mpesa

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// GenerateSecurityCredential encrypts the initiator password with the
// gateway's X.509 certificate (RSA PKCS#1 v1.5) and base64-encodes it, which
// is the form B2C/B2B/balance/status/reversal requests expect.
func GenerateSecurityCredential(cert []byte, initiatorPassword string) (string, error) {
	block, _ := pem.Decode(cert)
	if block == nil {
		return "", errors.New("mpesa: failed to decode certificate PEM block")
	}

	parsed, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return "", fmt.Errorf("mpesa: failed to parse certificate: %w", err)
	}

	publicKey, ok := parsed.PublicKey.(*rsa.PublicKey)
	if !ok {
		return "", errors.New("mpesa: certificate does not contain an RSA public key")
	}

	encrypted, err := rsa.EncryptPKCS1v15(rand.Reader, publicKey, []byte(initiatorPassword))
	if err != nil {
		return "", fmt.Errorf("mpesa: failed to encrypt initiator password: %w", err)
	}

	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// GenerateSecurityCredentialFromFile reads the gateway certificate from disk
// and derives the security credential.
func GenerateSecurityCredentialFromFile(certPath, initiatorPassword string) (string, error) {
	cert, err := os.ReadFile(certPath)
	if err != nil {
		return "", fmt.Errorf("mpesa: failed to read certificate: %w", err)
	}
	return GenerateSecurityCredential(cert, initiatorPassword)
}
