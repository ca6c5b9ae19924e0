package feed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateFormatter renders a post timestamp the way the feed prints it. Date
// search matches against this text, so the query has to look like what the
// user sees ("١٥ أكتوبر ٢٠٢٦"), not like an ISO date.
type DateFormatter interface {
	FormatDate(t time.Time) string
}

// Supported locales.
const (
	LocaleArabicEgypt = "ar-EG"
	LocaleEnglishUS   = "en-US"
)

var arabicMonths = [12]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

// NewDateFormatter returns the formatter for locale. Dates are converted to
// loc first; a nil loc means time.Local.
func NewDateFormatter(locale string, loc *time.Location) (DateFormatter, error) {
	if loc == nil {
		loc = time.Local
	}
	switch locale {
	case LocaleArabicEgypt:
		return arabicFormatter{loc: loc}, nil
	case LocaleEnglishUS:
		return englishFormatter{loc: loc}, nil
	}
	return nil, fmt.Errorf("unsupported date locale %q", locale)
}

// arabicFormatter prints "day month year" with Arabic-Indic digits.
type arabicFormatter struct{ loc *time.Location }

func (f arabicFormatter) FormatDate(t time.Time) string {
	t = t.In(f.loc)
	return arabicDigits(strconv.Itoa(t.Day())) + " " +
		arabicMonths[t.Month()-1] + " " +
		arabicDigits(strconv.Itoa(t.Year()))
}

// englishFormatter prints "October 15, 2026".
type englishFormatter struct{ loc *time.Location }

func (f englishFormatter) FormatDate(t time.Time) string {
	return t.In(f.loc).Format("January 2, 2006")
}

func arabicDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune('٠' + (r - '0'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
