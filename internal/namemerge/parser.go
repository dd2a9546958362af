// Package namemerge parses filenames into semantic components (dates, times,
// descriptive words) and fuses several names for the same content into one
// information-preserving name.
package namemerge

import (
	"regexp"
	"strings"
	"time"
)

// Components holds the semantic content extracted from a single filename.
type Components struct {
	Dates []time.Time
	Times []string // normalized to HH-MM-SS
	Words []string
	Ext   string // includes the leading dot, "" if none
	// Generic marks names carrying no information worth preserving
	// (camera defaults, hashes, generated slugs).
	Generic bool
}

// copyNotations are stripped before any extraction: "(1)", "[2]", "copy",
// "copy of", trailing "- 3".
var copyNotations = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*-?\s*copy(\s+of)?`),
	regexp.MustCompile(`\s*\(\d+\)`),
	regexp.MustCompile(`\s*\[\d+\]`),
	regexp.MustCompile(`\s*-\s*\d+$`),
	regexp.MustCompile(`(?i)\s*copy\s*\d*`),
}

// datePattern pairs a regexp with a builder that turns its submatches into a
// string parseable by the given layout. Patterns are tried in priority order;
// the first structurally valid match per pattern wins. time.Parse rejects
// impossible calendar dates (month 13, day 32), which are dropped silently.
type datePattern struct {
	re     *regexp.Regexp
	layout string
	build  func(groups []string) string
}

func joinDash(groups []string) string { return strings.Join(groups, "-") }

var datePatterns = []datePattern{
	{regexp.MustCompile(`(\d{4})[_-](\d{2})[_-](\d{2})`), "2006-01-02", joinDash},
	{regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`), "20060102", func(g []string) string { return strings.Join(g, "") }},
	{regexp.MustCompile(`(\d{2})[_-](\d{2})[_-](\d{4})`), "01-02-2006", joinDash},
	{regexp.MustCompile(`(\d{2})(\d{2})(\d{4})`), "01022006", func(g []string) string { return strings.Join(g, "") }},
	{
		regexp.MustCompile(`(?i)(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[_\s-]?(\d{1,2})[_\s-]?(\d{4})`),
		"Jan-2-2006",
		func(g []string) string {
			month := strings.ToUpper(g[0][:1]) + strings.ToLower(g[0][1:])
			return month + "-" + strings.TrimLeft(g[1], "0") + "-" + g[2]
		},
	},
}

var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{2})[:\-_](\d{2})[:\-_](\d{2})`),
	regexp.MustCompile(`(\d{6})`),
}

// genericPatterns match separator-stripped, lowercased names.
var genericPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^img\d+$`),
	regexp.MustCompile(`^dsc\d+$`),
	regexp.MustCompile(`^dcim\d+$`),
	regexp.MustCompile(`^pic\d+$`),
	regexp.MustCompile(`^vid\d+$`),
	regexp.MustCompile(`^mov\d+$`),
	regexp.MustCompile(`^download`),
	regexp.MustCompile(`^untitled`),
	regexp.MustCompile(`^image`),
	regexp.MustCompile(`^photo`),
	regexp.MustCompile(`^video`),
	regexp.MustCompile(`^file`),
	regexp.MustCompile(`^[a-f0-9]{8,}$`),  // long hex strings (hashes)
	regexp.MustCompile(`^[a-z0-9]{20,}$`), // random generated names
}

var (
	wordSplit   = regexp.MustCompile(`[_\-\s.]+`)
	hasLetters  = regexp.MustCompile(`[a-zA-Z]{2,}`)
	allDigits   = regexp.MustCompile(`^\d+$`)
	sepStripper = regexp.MustCompile(`[_\-\s.]+`)
)

// Parser extracts Components from filenames. The zero value is ready to use.
//
// Parsing never fails: anything that cannot be recognized simply contributes
// no information of that kind.
type Parser struct{}

// Parse extracts the semantic components of a single filename.
func (Parser) Parse(filename string) Components {
	name, ext := splitExtension(filename)
	name = removeCopyNotations(name)

	dates := extractDates(name)
	withoutDates := removeDates(name)
	times := extractTimes(withoutDates)
	remainder := removeTimes(withoutDates)

	words := extractWords(remainder)

	return Components{
		Dates:   dates,
		Times:   times,
		Words:   words,
		Ext:     ext,
		Generic: isGeneric(remainder, words),
	}
}

// splitExtension splits on the final dot. Names without a dot have no extension.
func splitExtension(filename string) (name, ext string) {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return filename[:i], filename[i:]
	}
	return filename, ""
}

func removeCopyNotations(name string) string {
	for _, re := range copyNotations {
		name = re.ReplaceAllString(name, "")
	}
	return strings.TrimSpace(name)
}

// extractDates tries each pattern in priority order, keeping the first
// calendar-valid match per pattern.
func extractDates(name string) []time.Time {
	var dates []time.Time
	for _, dp := range datePatterns {
		for _, m := range dp.re.FindAllStringSubmatch(name, -1) {
			parsed, err := time.Parse(dp.layout, dp.build(m[1:]))
			if err != nil {
				continue
			}
			dates = append(dates, parsed)
			break
		}
	}
	return dates
}

func removeDates(name string) string {
	for _, dp := range datePatterns {
		name = dp.re.ReplaceAllString(name, "")
	}
	return name
}

// extractTimes finds time tokens and normalizes them to HH-MM-SS.
func extractTimes(name string) []string {
	var times []string
	for _, re := range timePatterns {
		for _, m := range re.FindAllStringSubmatch(name, -1) {
			switch len(m) - 1 {
			case 3:
				times = append(times, m[1]+"-"+m[2]+"-"+m[3])
			case 1:
				if len(m[1]) == 6 {
					times = append(times, m[1][0:2]+"-"+m[1][2:4]+"-"+m[1][4:6])
				}
			}
		}
	}
	return times
}

func removeTimes(name string) string {
	for _, re := range timePatterns {
		name = re.ReplaceAllString(name, "")
	}
	return name
}

// extractWords splits the date/time-free remainder on separator runs and keeps
// tokens that look descriptive: not empty, not purely numeric, at least two
// characters, containing at least two consecutive letters.
func extractWords(name string) []string {
	var words []string
	for _, w := range wordSplit.Split(name, -1) {
		w = strings.TrimSpace(w)
		if w == "" || len(w) < 2 {
			continue
		}
		if allDigits.MatchString(w) {
			continue
		}
		if hasLetters.MatchString(w) {
			words = append(words, w)
		}
	}
	return words
}

// isGeneric classifies a name as junk: no descriptive words survived and the
// separator-stripped name looks like a camera default, a hash, or a slug.
func isGeneric(name string, words []string) bool {
	if len(words) > 0 {
		return false
	}
	clean := strings.ToLower(sepStripper.ReplaceAllString(name, ""))
	for _, re := range genericPatterns {
		if re.MatchString(clean) {
			return true
		}
	}
	return false
}
