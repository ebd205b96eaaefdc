package validate

import (
	"regexp"
	"strings"
)

var (
	nonDigit     = regexp.MustCompile(`\D`)
	mobilePlain  = regexp.MustCompile(`^[6-9]\d{9}$`)
	mobileIntl   = regexp.MustCompile(`^91[6-9]\d{9}$`)
	mobileZeroed = regexp.MustCompile(`^0[6-9]\d{9}$`)
	unsafeChars  = regexp.MustCompile(`[<>"']`)
)

// Phone reports whether the value looks like an Indian mobile number,
// with or without the 91 country code or a leading zero.
func Phone(phone string) bool {
	if phone == "" {
		return false
	}
	digits := nonDigit.ReplaceAllString(phone, "")
	return mobilePlain.MatchString(digits) ||
		mobileIntl.MatchString(digits) ||
		mobileZeroed.MatchString(digits)
}

// Sanitize strips characters with markup significance and truncates to
// maxLen runes (0 means no limit).
func Sanitize(text string, maxLen int) string {
	if text == "" {
		return ""
	}
	text = unsafeChars.ReplaceAllString(text, "")
	if maxLen > 0 {
		r := []rune(text)
		if len(r) > maxLen {
			text = string(r[:maxLen])
		}
	}
	return strings.TrimSpace(text)
}
