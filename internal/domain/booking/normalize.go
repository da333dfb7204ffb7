package booking

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

const maxNoteLen = 300

var (
	emailRe      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneCleanRe = regexp.MustCompile(`[^\d\+]`)
	digitsRe     = regexp.MustCompile(`\D`)
	spaceRe      = regexp.MustCompile(`\s+`)
	hhmmRe       = regexp.MustCompile(`^\d{2}:\d{2}$`)
	fourDigitsRe = regexp.MustCompile(`^\d{4}$`)
)

// NormalizeEmail validates and lowercases an email address.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || !emailRe.MatchString(email) {
		return "", fmt.Errorf("invalid email %q", email)
	}
	return strings.ToLower(email), nil
}

// FormatPhone validates a phone number against the default region and
// returns it in E.164 form. Accepts national digits, +39..., 0039... etc.
func FormatPhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("phone missing")
	}
	raw = phoneCleanRe.ReplaceAllString(raw, "")

	parsed, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("phone not parseable: %w", err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("phone %q not valid for region %s", raw, region)
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// FormPhone reduces an E.164 number to the shape the booking form
// accepts: 10 national digits for Italian numbers, bare digits otherwise.
func FormPhone(e164 string) (string, error) {
	digits := digitsRe.ReplaceAllString(e164, "")

	var form string
	switch {
	case strings.HasPrefix(e164, "+39") && len(digits) >= 12:
		form = digits[len(digits)-10:]
	case len(digits) >= 10:
		form = digits[len(digits)-10:]
	default:
		form = digits
	}

	if len(form) < 8 {
		return "", fmt.Errorf("phone %q too short for the form", e164)
	}
	return form, nil
}

// ParseDate accepts ISO (2026-02-10), dd/mm/yyyy, dd-mm-yyyy and the
// relative words oggi/today and domani/tomorrow.
func ParseDate(value string, now time.Time) (time.Time, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return time.Time{}, fmt.Errorf("date missing")
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch v {
	case "oggi", "today":
		return today, nil
	case "domani", "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	for _, layout := range []string{"2006-01-02", "02/01/2006", "02-01-2006"} {
		if d, err := time.ParseInLocation(layout, v, now.Location()); err == nil {
			return d, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format %q", value)
}

// ParseTimeHHMM accepts "13:15", "13.15" and "1315" and returns "HH:MM".
func ParseTimeHHMM(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", fmt.Errorf("time missing")
	}

	v = strings.ReplaceAll(v, ".", ":")
	if fourDigitsRe.MatchString(v) {
		v = v[:2] + ":" + v[2:]
	}
	if !hhmmRe.MatchString(v) {
		return "", fmt.Errorf("invalid time format %q (use HH:MM)", value)
	}

	var h, m int
	fmt.Sscanf(v, "%d:%d", &h, &m)
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return "", fmt.Errorf("time %q out of range", value)
	}

	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// locationLabels maps loose user input onto the labels the site shows.
var locationLabels = []struct {
	key   string
	label string
}{
	{"ostia lido", "Ostia Lido"},
	{"ostia - lido", "Ostia Lido"},
	{"ostia", "Ostia Lido"},
	{"reggio calabria", "Reggio Calabria"},
	{"reggio", "Reggio Calabria"},
	{"talenti - roma", "Talenti - Roma"},
	{"talenti roma", "Talenti - Roma"},
	{"roma talenti", "Talenti - Roma"},
	{"talenti", "Talenti - Roma"},
	{"palermo", "Palermo"},
	{"appia", "Appia"},
}

// NormalizeLocation maps a free-form venue name onto the visible label.
// Unknown venues pass through trimmed so a new venue does not break
// bookings outright.
func NormalizeLocation(value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", fmt.Errorf("venue missing")
	}

	for _, m := range locationLabels {
		if v == m.key {
			return m.label, nil
		}
	}
	for _, m := range locationLabels {
		if strings.Contains(v, m.key) {
			return m.label, nil
		}
	}

	return strings.TrimSpace(value), nil
}

// InferMealType returns PRANZO or CENA. An explicit value wins; otherwise
// anything before 17:00 is lunch.
func InferMealType(hhmm, explicit string) string {
	if e := strings.ToUpper(strings.TrimSpace(explicit)); e == "PRANZO" || e == "CENA" {
		return e
	}
	var h int
	fmt.Sscanf(hhmm, "%d:", &h)
	if h < 17 {
		return "PRANZO"
	}
	return "CENA"
}

// SafeNote collapses whitespace and caps the note length.
func SafeNote(note string) string {
	n := strings.TrimSpace(note)
	if n == "" {
		return ""
	}
	n = spaceRe.ReplaceAllString(n, " ")
	if len(n) > maxNoteLen {
		n = n[:maxNoteLen]
	}
	return n
}
