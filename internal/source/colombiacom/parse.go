package colombiacom

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	clockRe       = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(am|pm)`)
	spanishDateRe = regexp.MustCompile(`^([\p{L}]{3})\s+(\d{1,2})\s*/\s*(\d{4})`)
	yearRe        = regexp.MustCompile(`\d{4}`)
	durationRe    = regexp.MustCompile(`^(\d+)`)
	actorSplitRe  = regexp.MustCompile(`,\s*|\s+y\s+`)
)

var spanishMonths = map[string]time.Month{
	"ene": time.January,
	"feb": time.February,
	"mar": time.March,
	"abr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"ago": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dic": time.December,
}

// parseClockTime converts a 12-hour listing time like "12:50 pm" into
// 24-hour "HH:MM" form.
func parseClockTime(raw string) (string, bool) {
	m := clockRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(raw)))
	if m == nil {
		return "", false
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return "", false
	}

	switch {
	case m[3] == "pm" && hour != 12:
		hour += 12
	case m[3] == "am" && hour == 12:
		hour = 0
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

// parseReleaseDate parses the site's release date format, "Ene 15 / 2026".
// Returns the full date when the whole string parses, or just the year
// when only a 4-digit year is recognizable.
func parseReleaseDate(raw string) (time.Time, int) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, 0
	}

	if m := spanishDateRe.FindStringSubmatch(raw); m != nil {
		if month, ok := spanishMonths[strings.ToLower(m[1])]; ok {
			day, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			// time.Date normalizes out-of-range days, e.g. Feb 30.
			if d.Day() == day && d.Month() == month {
				return d, year
			}
		}
	}

	if m := yearRe.FindString(raw); m != "" {
		year, _ := strconv.Atoi(m)
		return time.Time{}, year
	}

	return time.Time{}, 0
}

// parseDuration extracts the minute count from text like "85 minutos".
func parseDuration(raw string) int {
	m := durationRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0
	}
	minutes, _ := strconv.Atoi(m[1])
	return minutes
}

// splitActors splits an actor list on commas and the Spanish "y".
func splitActors(raw string) []string {
	var actors []string
	for _, part := range actorSplitRe.Split(raw, -1) {
		if part = strings.TrimSpace(part); part != "" {
			actors = append(actors, part)
		}
	}
	return actors
}

// splitFormatLanguage separates language tokens like DOBLADA or
// SUBTITULADA from the projection format in a showtime description.
func splitFormatLanguage(desc string) (format, language string) {
	var formatParts []string
	for _, tok := range strings.Fields(desc) {
		switch upper := strings.ToUpper(tok); upper {
		case "DOBLADA", "SUBTITULADA", "ORIGINAL":
			if language == "" {
				language = upper
			}
		default:
			formatParts = append(formatParts, tok)
		}
	}
	return strings.Join(formatParts, " "), language
}

// parseDateOption parses a value from the page's date dropdown, which
// uses month/day/year with or without zero padding.
func parseDateOption(value string) (time.Time, error) {
	return time.Parse("1/2/2006", strings.TrimSpace(value))
}

// dateURL builds the listing URL for a specific date by setting the
// fecha query parameter the site's date dropdown submits.
func dateURL(listing string, date time.Time) (string, error) {
	u, err := url.Parse(listing)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("fecha", fmt.Sprintf("%d/%d/%d", int(date.Month()), date.Day(), date.Year()))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
