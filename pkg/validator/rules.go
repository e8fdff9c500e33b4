package validator

import (
	"regexp"
	"strings"
	"time"

	playground "github.com/go-playground/validator/v10"
)

// Tags registered by Register
const (
	TagClock        = "clock_hhmm"
	TagLocationType = "location_type"
	TagSeatNumber   = "seat_number"
)

// seatRegex matches a normalized seat label such as 12A or 3K
var seatRegex = regexp.MustCompile(`^[0-9]{1,3}[A-Z]{1,2}$`)

var locationTypes = map[string]bool{
	"airport": true,
	"city":    true,
}

// NormalizeSeatNumber uppercases a seat label and strips separators,
// so " 12-a " becomes "12A"
func NormalizeSeatNumber(seat string) string {
	seat = strings.ToUpper(strings.TrimSpace(seat))
	return strings.NewReplacer(" ", "", "-", "", ".", "").Replace(seat)
}

// IsSeatNumber reports whether seat is a well-formed label once normalized
func IsSeatNumber(seat string) bool {
	return seatRegex.MatchString(NormalizeSeatNumber(seat))
}

// IsClock reports whether s is a 24h "HH:MM" time of day
func IsClock(s string) bool {
	if len(s) != len("15:04") {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// IsLocationType reports whether s names a search endpoint kind
func IsLocationType(s string) bool {
	return locationTypes[s]
}

// Register installs the custom tags on v. It is safe to call on gin's
// binding engine once at startup.
func Register(v *playground.Validate) error {
	rules := map[string]func(string) bool{
		TagClock:        IsClock,
		TagLocationType: IsLocationType,
		TagSeatNumber:   IsSeatNumber,
	}
	for tag, check := range rules {
		check := check
		err := v.RegisterValidation(tag, func(fl playground.FieldLevel) bool {
			return check(fl.Field().String())
		})
		if err != nil {
			return err
		}
	}
	return nil
}
