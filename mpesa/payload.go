package mpesa

import (
	"encoding/base64"
	"regexp"
	"strings"
	"time"
)

var (
	nonDigitRe  = regexp.MustCompile(`[^\d+]`)
	msisdnRe    = regexp.MustCompile(`^254\d{9}$`)
	prefix254Re = regexp.MustCompile(`^254`)
)

// allowedQRSizes enumerates the pixel sizes the gateway accepts for dynamic
// QR generation.
var allowedQRSizes = map[string]bool{
	"100": true,
	"200": true,
	"300": true,
	"400": true,
	"500": true,
}

// GeneratePassword derives the gateway request password:
// base64(shortCode + passkey + timestamp).
func GeneratePassword(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}

// Timestamp formats t in the gateway's YYYYMMDDHHmmss convention.
func Timestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// FormatPhoneNumber normalizes a subscriber number to the 254XXXXXXXXX form
// the gateway requires. Accepted inputs: 07XXXXXXXX, +2547XXXXXXXX,
// 2547XXXXXXXX and bare 7XXXXXXXX, with surrounding whitespace or separators.
func FormatPhoneNumber(phoneNumber string) (string, error) {
	cleaned := nonDigitRe.ReplaceAllString(strings.TrimSpace(phoneNumber), "")

	if strings.HasPrefix(cleaned, "+") {
		cleaned = cleaned[1:]
	}

	if strings.HasPrefix(cleaned, "0") {
		cleaned = "254" + cleaned[1:]
	} else if len(cleaned) >= 9 && !prefix254Re.MatchString(cleaned) {
		cleaned = "254" + cleaned
	}

	if !msisdnRe.MatchString(cleaned) {
		return "", &ValidationError{Field: "phoneNumber", Message: "invalid phone number '" + phoneNumber + "', expected 254XXXXXXXXX"}
	}

	return cleaned, nil
}

// validateQRSize rejects QR sizes outside the enumerated set before any
// network call.
func validateQRSize(size string) error {
	if size == "" {
		return nil
	}
	if !allowedQRSizes[size] {
		return &ValidationError{Field: "size", Message: "QR size '" + size + "' not allowed, expected one of 100, 200, 300, 400, 500"}
	}
	return nil
}
