package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Local numbers without a country code are tried against these regions in order.
var supportedRegions = []string{
	"KE",
	"UG",
	"TZ",
}

func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsPossibleNumber(parsedNumber) {
			continue
		}
		return phonenumbers.Format(parsedNumber, phonenumbers.E164)
	}
	return ""
}

// PhoneRegion returns the ISO region of a phone number, or "" when unknown.
func PhoneRegion(phone string) string {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return ""
	}
	parsedNumber, err := phonenumbers.Parse(normalized, "")
	if err != nil {
		return ""
	}
	return phonenumbers.GetRegionCodeForNumber(parsedNumber)
}

// MSISDN is the E.164 number without the leading "+", as mobile money
// and messaging APIs expect it.
func MSISDN(phone string) string {
	return strings.TrimPrefix(NormalizePhone(phone), "+")
}
