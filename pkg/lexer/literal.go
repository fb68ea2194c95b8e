package lexer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lemonberrylabs/tscript/pkg/types"
)

const day = 24 * time.Hour

var durationUnits = map[string]time.Duration{
	"ms": time.Millisecond,
	"s":  time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": day, "day": day, "days": day,
	"w": 7 * day, "wk": 7 * day, "wks": 7 * day, "week": 7 * day, "weeks": 7 * day,
	"mo": 30 * day, "month": 30 * day, "months": 30 * day,
	"y": 365 * day, "yr": 365 * day, "yrs": 365 * day, "year": 365 * day, "years": 365 * day,
}

// ParseDuration parses a duration literal made of one or more
// <number><unit> groups, such as "90s", "2.5d" or "1h30m".
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	var total float64
	i := 0
	for i < len(s) {
		j := i
		for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
			j++
		}
		if j == i {
			return 0, fmt.Errorf("duration %q: expected a number at offset %d", s, i)
		}
		n, err := strconv.ParseFloat(s[i:j], 64)
		if err != nil {
			return 0, fmt.Errorf("duration %q: %w", s, err)
		}
		k := j
		for k < len(s) && !(s[k] >= '0' && s[k] <= '9' || s[k] == '.') {
			k++
		}
		unit, ok := durationUnits[s[j:k]]
		if !ok {
			return 0, fmt.Errorf("duration %q: unknown unit %q", s, s[j:k])
		}
		total += n * float64(unit)
		i = k
	}
	if total > math.MaxInt64 {
		return 0, fmt.Errorf("duration %q out of range", s)
	}
	return time.Duration(total), nil
}

// ParseClock parses a time-of-day literal, H:MM or H:MM:SS.
func ParseClock(s string) (time.Time, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return time.Time{}, fmt.Errorf("time %q: expected H:MM or H:MM:SS", s)
	}
	var fields [3]int
	for i, p := range parts {
		if p == "" || len(p) > 2 || (i > 0 && len(p) != 2) {
			return time.Time{}, fmt.Errorf("time %q: malformed field %q", s, p)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("time %q: %w", s, err)
		}
		fields[i] = n
	}
	if fields[0] > 23 || fields[1] > 59 || fields[2] > 59 {
		return time.Time{}, fmt.Errorf("time %q out of range", s)
	}
	return time.Date(0, time.January, 1, fields[0], fields[1], fields[2], 0, time.UTC), nil
}

// unescape resolves backslash escapes in a string literal body. Unknown
// escapes are kept as written.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' || i+1 >= len(s) {
			sb.WriteByte(ch)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case '\\', '\'', '"':
			sb.WriteByte(s[i])
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// Literal converts a literal token into its runtime value.
func Literal(tok Token) (types.Value, error) {
	switch tok.Type {
	case TokenInt:
		i, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return types.Null, fmt.Errorf("invalid integer %q at %s", tok.Lexeme, tok.Loc)
		}
		return types.NewInt(i), nil
	case TokenFloat:
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return types.Null, fmt.Errorf("invalid float %q at %s", tok.Lexeme, tok.Loc)
		}
		return types.NewFloat(f), nil
	case TokenPercent:
		f, err := strconv.ParseFloat(strings.TrimSuffix(tok.Lexeme, "%"), 64)
		if err != nil {
			return types.Null, fmt.Errorf("invalid percentage %q at %s", tok.Lexeme, tok.Loc)
		}
		return types.NewFloat(f / 100), nil
	case TokenString:
		return types.NewString(tok.Lexeme), nil
	case TokenDuration:
		d, err := ParseDuration(tok.Lexeme)
		if err != nil {
			return types.Null, err
		}
		return types.NewDuration(d), nil
	case TokenTime:
		t, err := ParseClock(tok.Lexeme)
		if err != nil {
			return types.Null, err
		}
		return types.NewTime(t), nil
	case TokenTrue:
		return types.NewBool(true), nil
	case TokenFalse:
		return types.NewBool(false), nil
	case TokenNil:
		return types.Null, nil
	default:
		return types.Null, fmt.Errorf("%s is not a literal", tok.Type)
	}
}
