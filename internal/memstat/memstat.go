// Package memstat turns the compact size tokens printed by ps, vmmap and
// similar tools ("512K", "1.5M", "2G", "4096") into byte counts.
//
// Every suffix is binary: K is 1024, M is 1024^2 and so on, including the
// "KB"/"MB" spellings. vmmap prints sizes with 1024-based units, and mixing
// decimal and binary multipliers across sources would make rows incomparable.
package memstat

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformed is wrapped by every ParseError.
var ErrMalformed = errors.New("malformed size token")

// ParseError reports a token that could not be converted.
type ParseError struct {
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse size %q: %s", e.Token, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformed
}

var multipliers = map[string]uint64{
	"":    1,
	"B":   1,
	"K":   1 << 10,
	"KB":  1 << 10,
	"KIB": 1 << 10,
	"M":   1 << 20,
	"MB":  1 << 20,
	"MIB": 1 << 20,
	"G":   1 << 30,
	"GB":  1 << 30,
	"GIB": 1 << 30,
	"T":   1 << 40,
	"TB":  1 << 40,
	"TIB": 1 << 40,
	"P":   1 << 50,
	"PB":  1 << 50,
	"PIB": 1 << 50,
}

// Parse converts token to a byte count. A bare integer is taken as bytes.
func Parse(token string) (uint64, error) {
	t := strings.TrimSpace(token)
	if t == "" {
		return 0, &ParseError{Token: token, Reason: "empty"}
	}

	split := len(t)
	for i, r := range t {
		if (r < '0' || r > '9') && r != '.' {
			split = i
			break
		}
	}
	num, unit := t[:split], strings.ToUpper(strings.TrimSpace(t[split:]))
	if num == "" {
		return 0, &ParseError{Token: token, Reason: "missing number"}
	}
	mult, ok := multipliers[unit]
	if !ok {
		return 0, &ParseError{Token: token, Reason: fmt.Sprintf("unknown unit %q", unit)}
	}

	if !strings.Contains(num, ".") {
		n, err := strconv.ParseUint(num, 10, 64)
		if err != nil {
			return 0, &ParseError{Token: token, Reason: "out of range"}
		}
		if n > math.MaxUint64/mult {
			return 0, &ParseError{Token: token, Reason: "out of range"}
		}
		return n * mult, nil
	}

	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, &ParseError{Token: token, Reason: "not a number"}
	}
	v := f * float64(mult)
	if v >= math.MaxUint64 {
		return 0, &ParseError{Token: token, Reason: "out of range"}
	}
	return uint64(v), nil
}
