// Package sequence mints human-readable business numbers from configured
// patterns, backed by gap-free per-period counters.
package sequence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"backoffice-platform/internal/apperr"
)

type segKind int

const (
	segLiteral segKind = iota
	segYear4
	segYear2
	segMonth
	segDay
	segDigits
)

type segment struct {
	kind  segKind
	text  string // literal text
	width int    // minimum digit width for segDigits
}

// Pattern is a validated number pattern. Placeholders:
//
//	[YYYY] [YY] [MM] [DD]  substituted from the allocation date
//	[nDIGIT] (n in 1..9)   the counter value, zero-padded to n digits
//
// Exactly one digit placeholder is required.
type Pattern struct {
	Raw      string
	segments []segment
	hasMonth bool
	hasDay   bool
}

// ParsePattern validates raw before any allocation is attempted. Rejections
// carry a specific reason so the config surface can surface it synchronously.
func ParsePattern(raw string) (Pattern, error) {
	p := Pattern{Raw: raw}
	digits := 0

	rest := raw
	for len(rest) > 0 {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			p.segments = append(p.segments, segment{kind: segLiteral, text: rest})
			break
		}
		if open > 0 {
			p.segments = append(p.segments, segment{kind: segLiteral, text: rest[:open]})
		}
		closeIdx := strings.IndexByte(rest[open:], ']')
		if closeIdx < 0 {
			return Pattern{}, apperr.Validationf("pattern %q has an unterminated placeholder", raw)
		}
		token := rest[open+1 : open+closeIdx]
		rest = rest[open+closeIdx+1:]

		switch token {
		case "YYYY":
			p.segments = append(p.segments, segment{kind: segYear4})
		case "YY":
			p.segments = append(p.segments, segment{kind: segYear2})
		case "MM":
			p.segments = append(p.segments, segment{kind: segMonth})
			p.hasMonth = true
		case "DD":
			p.segments = append(p.segments, segment{kind: segDay})
			p.hasDay = true
		default:
			width, ok := digitWidth(token)
			if !ok {
				return Pattern{}, apperr.Validationf("pattern %q contains unknown placeholder [%s]", raw, token)
			}
			digits++
			if digits > 1 {
				return Pattern{}, apperr.Validationf("pattern %q must contain exactly one digit placeholder", raw)
			}
			p.segments = append(p.segments, segment{kind: segDigits, width: width})
		}
	}

	if digits == 0 {
		return Pattern{}, apperr.Validationf("pattern %q must contain a digit placeholder such as [5DIGIT]", raw)
	}
	return p, nil
}

func digitWidth(token string) (int, bool) {
	s, ok := strings.CutSuffix(token, "DIGIT")
	if !ok || len(s) != 1 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 9 {
		return 0, false
	}
	return n, true
}

// PeriodKey scopes the counter. It always embeds the 4-digit year so counters
// roll over annually even for date-free patterns, and narrows to month/day
// when those placeholders appear: two periods never share a counter.
func (p Pattern) PeriodKey(now time.Time) string {
	key := fmt.Sprintf("%04d", now.Year())
	if p.hasMonth {
		key += fmt.Sprintf("-%02d", int(now.Month()))
	}
	if p.hasDay {
		key += fmt.Sprintf("-%02d", now.Day())
	}
	return key
}

// Format renders the pattern for the given allocation date and counter value.
// Values wider than the placeholder's minimum width are not truncated.
func (p Pattern) Format(now time.Time, value int64) string {
	var b strings.Builder
	for _, s := range p.segments {
		switch s.kind {
		case segLiteral:
			b.WriteString(s.text)
		case segYear4:
			fmt.Fprintf(&b, "%04d", now.Year())
		case segYear2:
			fmt.Fprintf(&b, "%02d", now.Year()%100)
		case segMonth:
			fmt.Fprintf(&b, "%02d", int(now.Month()))
		case segDay:
			fmt.Fprintf(&b, "%02d", now.Day())
		case segDigits:
			fmt.Fprintf(&b, "%0*d", s.width, value)
		}
	}
	return b.String()
}

// Preview renders raw with a fixed counter value of 1 so users can validate
// a pattern before saving it. No store writes happen.
func Preview(raw string, now time.Time) (string, error) {
	p, err := ParsePattern(raw)
	if err != nil {
		return "", err
	}
	return p.Format(now, 1), nil
}
