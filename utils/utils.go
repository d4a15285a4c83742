package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

// GenerateRandomDigitString returns n random decimal digits. Used for
// OTP codes.
func GenerateRandomDigitString(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			sb.WriteByte('0')
			continue
		}
		sb.WriteByte(byte('0' + num.Int64()))
	}
	return sb.String()
}

// ParseDate parses a "2006-01-02" query value, falling back when empty
// or malformed.
func ParseDate(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fallback
	}
	return t
}

func Contains(slice []string, value string) bool {
	for _, v := range slice {
		if v == value {
			return true
		}
	}
	return false
}
