package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
	"unicode"
)

// RFC-lite on purpose: letters, digits and ._%+- in the local part, a dotted
// domain with a 2+ letter TLD. Full RFC 5322 validation is not the goal.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func ValidEmailFormat(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidPassword enforces the account password policy: at least 8 characters
// with one uppercase letter, one lowercase letter and one digit.
func ValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// VerificationCodeTTL is how long an emailed verification code stays valid.
const VerificationCodeTTL = time.Hour

// NewVerificationCode returns a uniform 6-digit code in [100000, 999999]
// together with its expiry timestamp.
func NewVerificationCode() (string, time.Time) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand only fails when the platform entropy source is broken.
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), time.Now().Add(VerificationCodeTTL)
}
