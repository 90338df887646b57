package locale

import (
	"strings"
)

const (
	DefaultTimezone = "UTC"
	DefaultRegion   = "KE"
)

type Country struct {
	Code            string   // ISO 3166-1 alpha-2 country code (e.g., "KE")
	Name            string   // Human-readable country name
	PhonePrefixes   []string // Valid phone number prefixes (e.g., ["+254", "254"])
	DefaultTimezone string   // IANA timezone identifier (e.g., "Africa/Nairobi")
	Currency        string   // ISO 4217 code used for billing
}

var (
	Countries = map[string]Country{
		"KE": {
			Code:            "KE",
			Name:            "Kenya",
			PhonePrefixes:   []string{"+254", "254"},
			DefaultTimezone: "Africa/Nairobi",
			Currency:        "KES",
		},
		"UG": {
			Code:            "UG",
			Name:            "Uganda",
			PhonePrefixes:   []string{"+256", "256"},
			DefaultTimezone: "Africa/Kampala",
			Currency:        "UGX",
		},
		"TZ": {
			Code:            "TZ",
			Name:            "Tanzania",
			PhonePrefixes:   []string{"+255", "255"},
			DefaultTimezone: "Africa/Dar_es_Salaam",
			Currency:        "TZS",
		},
	}

	TimeZoneTags = map[string][]string{
		"KE": {"Africa/Nairobi", "EAT"},
		"UG": {"Africa/Kampala"},
		"TZ": {"Africa/Dar_es_Salaam"},
	}
)

func DetectRegion(tz string) string {
	for region, zones := range TimeZoneTags {
		for _, z := range zones {
			if strings.EqualFold(tz, z) {
				return region
			}
		}
	}
	return DefaultRegion
}
