package validation

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

type formatChecker struct {
	description string
	valid       func(string) bool
}

var formats = map[string]formatChecker{
	"email": {description: "a valid email address", valid: govalidator.IsEmail},
	"uri":   {description: "a valid URL", valid: govalidator.IsRequestURL},
	"url":   {description: "a valid URL", valid: govalidator.IsRequestURL},
	"ipv4":  {description: "a valid IPv4 address", valid: govalidator.IsIPv4},
	"ipv6":  {description: "a valid IPv6 address", valid: govalidator.IsIPv6},
	"uuid": {description: "a valid UUID", valid: func(s string) bool {
		_, err := uuid.Parse(s)
		return err == nil
	}},
	"date": {description: "a date (YYYY-MM-DD)", valid: func(s string) bool {
		_, err := time.Parse(time.DateOnly, s)
		return err == nil
	}},
	"date-time": {description: "an RFC 3339 timestamp", valid: func(s string) bool {
		_, err := time.Parse(time.RFC3339, s)
		return err == nil
	}},
}

// KnownFormat reports whether name is a supported `format` rule value.
// Names are matched case-insensitively.
func KnownFormat(name string) bool {
	_, ok := formats[formatName(name)]
	return ok
}

func formatName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
