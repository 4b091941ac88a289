package kochi

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Per-field label synonyms, ordered. On a free-text line the first matching
// synonym wins.
var (
	speciesLabels     = []string{"種類", "動物種別", "種別"}
	sexLabels         = []string{"性別"}
	ageLabels         = []string{"推定年齢", "年齢"}
	colorLabels       = []string{"毛色", "色"}
	sizeLabels        = []string{"体格", "大きさ", "サイズ"}
	shelterDateLabels = []string{"収容日", "保護日"}
	locationLabels    = []string{"収容場所", "保護場所"}
	phoneLabels       = []string{"電話番号", "電話", "連絡先", "TEL"}
)

var valueStripper = strings.NewReplacer(
	"（", "", "）", "", "(", "", ")", "",
	"【", "", "】", "", "[", "", "]", "",
)

// extractField looks a labeled value up in the content region, trying the
// layouts the shelter pages have used over the years: definition lists,
// label/value table rows, then plain "label：value" text lines.
func extractField(region *goquery.Selection, labels []string) string {
	if value := fromDefinitionList(region, labels); value != "" {
		return value
	}
	if value := fromTableRows(region, labels); value != "" {
		return value
	}
	return fromTextLines(region, labels)
}

func fromDefinitionList(region *goquery.Selection, labels []string) string {
	value := ""
	region.Find("dl dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if !labelMatches(dt.Text(), labels) {
			return true
		}
		dd := dt.NextAllFiltered("dd").First()
		if dd.Length() == 0 {
			return true
		}
		value = cleanValue(dd.Text())
		return value == ""
	})
	return value
}

// fromTableRows handles both "header cell + data cell" rows and rows made of
// two data cells.
func fromTableRows(region *goquery.Selection, labels []string) string {
	value := ""
	region.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return true
		}
		if !labelMatches(cells.Eq(0).Text(), labels) {
			return true
		}
		value = cleanValue(cells.Eq(1).Text())
		return value == ""
	})
	return value
}

func fromTextLines(region *goquery.Selection, labels []string) string {
	for _, line := range strings.Split(region.Text(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, label := range labels {
			idx := strings.Index(line, label)
			if idx < 0 {
				continue
			}
			rest := line[idx+len(label):]
			sep := strings.IndexAny(rest, ":：")
			if sep < 0 {
				continue
			}
			_, width := utf8.DecodeRuneInString(rest[sep:])
			if value := cleanValue(rest[sep+width:]); value != "" {
				return value
			}
		}
	}
	return ""
}

func labelMatches(text string, labels []string) bool {
	trimmed := strings.TrimSpace(text)
	for _, label := range labels {
		if strings.Contains(trimmed, label) {
			return true
		}
	}
	return false
}

func cleanValue(text string) string {
	return strings.TrimSpace(valueStripper.Replace(text))
}
