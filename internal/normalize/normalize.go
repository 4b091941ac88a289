// Package normalize converts raw free-text fields scraped from municipal
// sites into the canonical model. All functions are pure and deterministic.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/petrescueapp/data-collector/internal/model"
)

// DefaultEraBaseYear is the first Gregorian year of the Reiwa era.
const DefaultEraBaseYear = 2019

// Token lists are ordered; the first family with any matching token wins.
var (
	dogTokens = []string{"犬", "いぬ", "イヌ", "inu", "dog"}
	catTokens = []string{"猫", "ねこ", "ネコ", "neko", "cat"}

	// Female is checked before male: the raw substring "male" appears
	// inside "female".
	femaleTokens = []string{"女の子", "オンナノコ", "メス", "めす", "雌", "♀", "female"}
	maleTokens   = []string{"男の子", "オトコノコ", "オス", "おす", "雄", "♂", "male"}

	unknownLiterals = []string{"不明", "?", "？", "unknown", ""}
)

var (
	ageYearsRe    = regexp.MustCompile(`(\d+)\s*歳`)
	ageMonthsRe   = regexp.MustCompile(`(\d+)\s*[ヶかカケ]月`)
	ageAltYearsRe = regexp.MustCompile(`(\d+)\s*年`)

	isoDateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	eraDateRe     = regexp.MustCompile(`令和(\d+)年(\d+)月(\d+)日`)
	eraCompactRe  = regexp.MustCompile(`R(\d{1,2})\.(\d{1,2})/(\d{1,2})`)
	slashDateRe   = regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`)
	kanjiDateRe   = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
	nonDigitRe    = regexp.MustCompile(`\D`)
	twoDigitAreas = map[string]bool{"03": true, "04": true, "05": true, "06": true}
)

// Species maps free text onto the closed species enum. Unrecognized input
// becomes SpeciesOther; this function never fails.
func Species(text string) model.Species {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, token := range dogTokens {
		if strings.Contains(lowered, strings.ToLower(token)) {
			return model.SpeciesDog
		}
	}
	for _, token := range catTokens {
		if strings.Contains(lowered, strings.ToLower(token)) {
			return model.SpeciesCat
		}
	}
	return model.SpeciesOther
}

// Sex maps free text onto the closed sex enum, defaulting to SexUnknown.
func Sex(text string) model.Sex {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, token := range femaleTokens {
		if strings.Contains(lowered, strings.ToLower(token)) {
			return model.SexFemale
		}
	}
	for _, token := range maleTokens {
		if strings.Contains(lowered, strings.ToLower(token)) {
			return model.SexMale
		}
	}
	return model.SexUnknown
}

// Age converts a free-text age into whole months. Known unknown literals and
// anything unparseable yield nil rather than an error.
func Age(text string) *int {
	trimmed := strings.TrimSpace(text)
	for _, literal := range unknownLiterals {
		if trimmed == literal {
			return nil
		}
	}
	if m := ageYearsRe.FindStringSubmatch(trimmed); m != nil {
		return intPtr(mustAtoi(m[1]) * 12)
	}
	if m := ageMonthsRe.FindStringSubmatch(trimmed); m != nil {
		return intPtr(mustAtoi(m[1]))
	}
	if m := ageAltYearsRe.FindStringSubmatch(trimmed); m != nil {
		return intPtr(mustAtoi(m[1]) * 12)
	}
	return nil
}

// Date parses a shelter date in any of the accepted forms: ISO, 令和N年M月D日,
// RN.M/D, YYYY/M/D, and YYYY年M月D日. Era years map to Gregorian as
// eraBaseYear-1+N. Every branch validates against the real calendar. This is
// the one normalizer that can fail a record.
func Date(text string, eraBaseYear int) (model.Date, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return model.Date{}, fmt.Errorf("empty date")
	}
	if isoDateRe.MatchString(trimmed) {
		return model.ParseDate(trimmed)
	}
	if m := eraDateRe.FindStringSubmatch(trimmed); m != nil {
		year := eraBaseYear - 1 + mustAtoi(m[1])
		return model.NewDate(year, time.Month(mustAtoi(m[2])), mustAtoi(m[3]))
	}
	if m := eraCompactRe.FindStringSubmatch(trimmed); m != nil {
		year := eraBaseYear - 1 + mustAtoi(m[1])
		return model.NewDate(year, time.Month(mustAtoi(m[2])), mustAtoi(m[3]))
	}
	if m := slashDateRe.FindStringSubmatch(trimmed); m != nil {
		return model.NewDate(mustAtoi(m[1]), time.Month(mustAtoi(m[2])), mustAtoi(m[3]))
	}
	if m := kanjiDateRe.FindStringSubmatch(trimmed); m != nil {
		return model.NewDate(mustAtoi(m[1]), time.Month(mustAtoi(m[2])), mustAtoi(m[3]))
	}
	return model.Date{}, fmt.Errorf("unrecognized date format: %q", text)
}

// Phone regroups a phone number into its canonical hyphenated form. The
// grouping is re-derived from the bare digits, so pre-existing hyphens and
// parentheses never leak through. Digit counts other than 10 or 11 come back
// as the bare digit string.
func Phone(text string) string {
	cleaned := strings.NewReplacer("(", "", ")", "", "（", "", "）", "").Replace(strings.TrimSpace(text))
	digits := nonDigitRe.ReplaceAllString(cleaned, "")
	switch len(digits) {
	case 10:
		if twoDigitAreas[digits[0:2]] {
			return digits[0:2] + "-" + digits[2:6] + "-" + digits[6:10]
		}
		return digits[0:3] + "-" + digits[3:6] + "-" + digits[6:10]
	case 11:
		return digits[0:3] + "-" + digits[3:7] + "-" + digits[7:11]
	default:
		return digits
	}
}

// Canonicalize turns one raw record into a validated canonical record using
// the configured era base year. The shelter date is the only field whose
// bad input fails the whole record.
func Canonicalize(raw model.RawRecord, eraBaseYear int) (model.Record, error) {
	shelterDate, err := Date(raw.ShelterDate, eraBaseYear)
	if err != nil {
		return model.Record{}, &model.ValidationError{Field: "shelter_date", Reason: err.Error()}
	}

	record := model.Record{
		Species:     Species(raw.Species),
		Sex:         Sex(raw.Sex),
		AgeMonths:   Age(raw.Age),
		Color:       optional(raw.Color),
		Size:        optional(raw.Size),
		ShelterDate: shelterDate,
		Location:    optional(raw.Location),
		Phone:       optionalPhone(raw.Phone),
		ImageURLs:   append([]string(nil), raw.ImageURLs...),
		SourceURL:   raw.SourceURL,
	}
	if record.ImageURLs == nil {
		record.ImageURLs = []string{}
	}
	if err := record.Validate(); err != nil {
		return model.Record{}, err
	}
	return record, nil
}

func optional(text string) *string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func optionalPhone(text string) *string {
	formatted := Phone(text)
	if formatted == "" {
		return nil
	}
	return &formatted
}

func intPtr(v int) *int { return &v }

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		// The regexps only capture digit runs.
		panic(err)
	}
	return n
}
