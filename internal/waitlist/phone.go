package waitlist

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/tamweel-auto/waitlist/internal/i18n"
)

// DefaultCountryCode is prefixed to normalized local numbers.
const DefaultCountryCode = "+966"

var localMobile = regexp.MustCompile(`^5\d{8}$`)

// NormalizePhone turns user input into countryCode followed by nine local
// digits. Arabic-Indic digits and common separators are accepted.
func NormalizePhone(raw, countryCode string) (string, error) {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9', r == '+':
			b.WriteRune(r)
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		case r >= '۰' && r <= '۹':
			b.WriteRune('0' + (r - '۰'))
		case r == ' ', r == '-', r == '.', r == '(', r == ')':
		default:
			return "", &ValidationError{Field: "phone", Reason: i18n.WaitlistPhoneInvalid}
		}
	}
	digits := b.String()
	if digits == "" {
		return "", &ValidationError{Field: "phone", Reason: i18n.WaitlistPhoneRequired}
	}

	cc := strings.TrimPrefix(countryCode, "+")
	for _, prefix := range []string{"+" + cc, "00" + cc, cc} {
		if strings.HasPrefix(digits, prefix) && len(digits)-len(prefix) == 9 {
			digits = digits[len(prefix):]
			break
		}
	}
	digits = strings.TrimPrefix(digits, "0")

	if !localMobile.MatchString(digits) {
		return "", &ValidationError{Field: "phone", Reason: i18n.WaitlistPhoneInvalid}
	}
	return "+" + cc + digits, nil
}

// NormalizeEmail lowercases a bare address and rejects display-name forms.
func NormalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", &ValidationError{Field: "email", Reason: i18n.WaitlistEmailRequired}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", &ValidationError{Field: "email", Reason: i18n.WaitlistEmailInvalid}
	}
	at := strings.LastIndexByte(email, '@')
	if domain := email[at+1:]; !strings.Contains(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", &ValidationError{Field: "email", Reason: i18n.WaitlistEmailInvalid}
	}
	return strings.ToLower(email), nil
}

// NormalizeReferralCode uppercases and trims a code typed or pasted by a user.
func NormalizeReferralCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
