package validator

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Required fails on empty or whitespace-only values.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "field is required"},
	}
}

// MaxLen counts runes, not bytes.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= max },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters long", max)},
	}
}

// ValidEmail accepts a bare RFC 5322 address whose domain has a dot.
// Empty values pass; combine with Required when the field is mandatory.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" {
				return true
			}
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != value {
				return false
			}
			_, domain, ok := strings.Cut(addr.Address, "@")
			return ok && strings.Contains(strings.Trim(domain, "."), ".")
		},
		Error: ValidationError{Field: field, Message: "must be a valid email address"},
	}
}

// NumericCode checks for between min and max digits once spaces are removed.
func NumericCode(field, value string, min, max int) Rule {
	return Rule{
		Check: func() bool {
			digits := strings.ReplaceAll(value, " ", "")
			if len(digits) < min || len(digits) > max {
				return false
			}
			for i := 0; i < len(digits); i++ {
				if digits[i] < '0' || digits[i] > '9' {
					return false
				}
			}
			return true
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be %d to %d digits", min, max)},
	}
}
