package adapter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	relativeEnglish  = regexp.MustCompile(`^(\d+|a|an|one)\+?\s*(minutes?|mins?|hours?|hrs?|h|days?|d|weeks?|w|months?|mo)\s+ago$`)
	relativeRomanian = regexp.MustCompile(`^acum\s+(\d+|o|un)\s+(minut|minute|oră|ora|ore|zi|zile|săptămână|saptamana|săptămâni|saptamani|lună|luna|luni)$`)
)

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// ParsePostedDate understands the date strings job boards tend to show:
// absolute dates and relative phrases in English ("3 days ago", "yesterday")
// and Romanian ("acum 3 zile", "ieri"). It returns false for anything else.
func ParsePostedDate(s string, now time.Time) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, true
		}
	}

	phrase := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	phrase = strings.TrimPrefix(phrase, "posted ")
	phrase = strings.TrimPrefix(phrase, "publicat ")

	switch phrase {
	case "today", "just now", "just posted", "< 24h", "<24h", "new", "azi", "astăzi", "astazi", "chiar acum":
		return &now, true
	case "yesterday", "ieri":
		t := now.AddDate(0, 0, -1)
		return &t, true
	}

	if m := relativeEnglish.FindStringSubmatch(phrase); m != nil {
		return ago(now, m[1], unitEnglish(m[2]))
	}
	if m := relativeRomanian.FindStringSubmatch(phrase); m != nil {
		return ago(now, m[1], unitRomanian(m[2]))
	}
	return nil, false
}

type unit int

const (
	unitMinute unit = iota
	unitHour
	unitDay
	unitWeek
	unitMonth
)

func unitEnglish(s string) unit {
	switch {
	case strings.HasPrefix(s, "mo"):
		return unitMonth
	case strings.HasPrefix(s, "min"):
		return unitMinute
	case strings.HasPrefix(s, "h"):
		return unitHour
	case strings.HasPrefix(s, "w"):
		return unitWeek
	default:
		return unitDay
	}
}

func unitRomanian(s string) unit {
	switch {
	case strings.HasPrefix(s, "minut"):
		return unitMinute
	case strings.HasPrefix(s, "or"):
		return unitHour
	case strings.HasPrefix(s, "s"):
		return unitWeek
	case strings.HasPrefix(s, "lu"):
		return unitMonth
	default:
		return unitDay
	}
}

func ago(now time.Time, count string, u unit) (*time.Time, bool) {
	n := 1
	switch count {
	case "a", "an", "one", "o", "un":
	default:
		v, err := strconv.Atoi(count)
		if err != nil {
			return nil, false
		}
		n = v
	}

	var t time.Time
	switch u {
	case unitMinute:
		t = now.Add(-time.Duration(n) * time.Minute)
	case unitHour:
		t = now.Add(-time.Duration(n) * time.Hour)
	case unitWeek:
		t = now.AddDate(0, 0, -7*n)
	case unitMonth:
		t = now.AddDate(0, -n, 0)
	default:
		t = now.AddDate(0, 0, -n)
	}
	return &t, true
}
