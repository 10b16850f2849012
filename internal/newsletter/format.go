package newsletter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatNumber renders n with grouped thousands and exactly digits fraction digits.
func FormatNumber(n float64, digits int) string {
	if digits < 0 {
		digits = 0
	}
	return groupThousands(strconv.FormatFloat(n, 'f', digits, 64))
}

// FormatCompact renders the magnitude of v: M from 100,000 up, K above 1,000,
// otherwise up to 2/4/6 fraction digits depending on size. The sign is dropped.
func FormatCompact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 100_000:
		return fmt.Sprintf("%.2fM", abs/1_000_000)
	case abs > 1_000:
		return fmt.Sprintf("%.2fK", abs/1_000)
	}
	return groupThousands(trimFraction(strconv.FormatFloat(abs, 'f', magnitudeDigits(abs), 64)))
}

// FormatSignedCompact renders a delta as +/- followed by FormatCompact, or "-" for zero.
func FormatSignedCompact(delta float64) string {
	if delta == 0 {
		return "-"
	}
	sign := "+"
	if delta < 0 {
		sign = "-"
	}
	return sign + FormatCompact(delta)
}

// FormatSigned renders +N, -N, or "-" for zero.
func FormatSigned(n int64) string {
	if n == 0 {
		return "-"
	}
	if n > 0 {
		return "+" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// FormatPercentage expects p in 0..100.
func FormatPercentage(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}

// FormatTokenAmount scales a raw integer amount by decimals.
func FormatTokenAmount(raw int64, decimals int32) string {
	if decimals < 0 {
		decimals = 0
	}
	v := decimal.New(raw, -decimals)
	digits := int32(magnitudeDigits(v.Abs().InexactFloat64()))
	return groupThousands(v.Round(digits).String())
}

// Shorten keeps head and tail characters of an address around "...".
func Shorten(addr string, head, tail int) string {
	if len(addr) <= head+tail+3 {
		return addr
	}
	return addr[:head] + "..." + addr[len(addr)-tail:]
}

// DisplayName prefers the community username over the shortened address.
func DisplayName(username *string, addr string) string {
	if username != nil {
		return *username
	}
	return Shorten(addr, 6, 4)
}

func magnitudeDigits(abs float64) int {
	switch {
	case abs >= 100:
		return 2
	case abs >= 1:
		return 4
	default:
		return 6
	}
}

func trimFraction(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if strings.Trim(intPart+frac, "0") == "" {
		sign = ""
	}

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
