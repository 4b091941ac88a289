package normalize_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrescueapp/data-collector/internal/model"
	"github.com/petrescueapp/data-collector/internal/normalize"
)

func TestSpecies(t *testing.T) {
	cases := []struct {
		input string
		want  model.Species
	}{
		{"犬", model.SpeciesDog},
		{"雑種の犬", model.SpeciesDog},
		{"いぬ（中型）", model.SpeciesDog},
		{"イヌ", model.SpeciesDog},
		{"DOG", model.SpeciesDog},
		{"猫", model.SpeciesCat},
		{"ネコ", model.SpeciesCat},
		{"Neko", model.SpeciesCat},
		{"cat", model.SpeciesCat},
		{"ウサギ", model.SpeciesOther},
		{"", model.SpeciesOther},
		{"不明", model.SpeciesOther},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, normalize.Species(tc.input))
		})
	}
}

func TestSpeciesAlwaysClosedEnum(t *testing.T) {
	inputs := []string{"犬", "猫", "鳥", "", "  ", "dogcat", "ﾈｺ", "12345", "<script>"}
	for _, input := range inputs {
		got := normalize.Species(input)
		assert.Contains(t, []model.Species{model.SpeciesDog, model.SpeciesCat, model.SpeciesOther}, got,
			"input %q must map into the closed enum", input)
	}
}

func TestSex(t *testing.T) {
	cases := []struct {
		input string
		want  model.Sex
	}{
		{"オス", model.SexMale},
		{"おす", model.SexMale},
		{"雄", model.SexMale},
		{"♂", model.SexMale},
		{"male", model.SexMale},
		{"男の子", model.SexMale},
		{"メス", model.SexFemale},
		{"雌", model.SexFemale},
		{"♀", model.SexFemale},
		{"女の子", model.SexFemale},
		{"不明", model.SexUnknown},
		{"", model.SexUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, normalize.Sex(tc.input))
		})
	}
}

// "female" contains the substring "male"; the female check must win.
func TestSexFemaleBeforeMale(t *testing.T) {
	assert.Equal(t, model.SexFemale, normalize.Sex("female"))
	assert.Equal(t, model.SexFemale, normalize.Sex("Female (spayed)"))
}

func TestAge(t *testing.T) {
	cases := []struct {
		input string
		want  *int
	}{
		{"3歳", intPtr(36)},
		{"推定3歳", intPtr(36)},
		{"5ヶ月", intPtr(5)},
		{"2か月", intPtr(2)},
		{"4カ月", intPtr(4)},
		{"6ケ月", intPtr(6)},
		{"1年", intPtr(12)},
		{"約 2 歳", intPtr(24)},
		{"0歳", intPtr(0)},
		{"不明", nil},
		{"?", nil},
		{"？", nil},
		{"unknown", nil},
		{"", nil},
		{"若齢", nil},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got := normalize.Age(tc.input)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}
}

// Re-normalizing the canonical "Nヶ月" phrasing of any parsed value must
// reproduce the same integer.
func TestAgeIdempotent(t *testing.T) {
	for _, input := range []string{"3歳", "5ヶ月", "1年", "18か月"} {
		first := normalize.Age(input)
		require.NotNil(t, first)
		second := normalize.Age(fmt.Sprintf("%dヶ月", *first))
		require.NotNil(t, second)
		assert.Equal(t, *first, *second, "input %q", input)
	}
}

func TestDate(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"2026-01-05", "2026-01-05"},
		{"令和8年1月5日", "2026-01-05"},
		{"令和3年11月16日", "2021-11-16"},
		{"R8.1/9", "2026-01-09"},
		{"R3.11/16", "2021-11-16"},
		{"2026/1/5", "2026-01-05"},
		{"2026/01/05", "2026-01-05"},
		{"2026年1月5日", "2026-01-05"},
		{"収容日 2026年1月5日 午前", "2026-01-05"},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := normalize.Date(tc.input, normalize.DefaultEraBaseYear)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestDateRoundTrip(t *testing.T) {
	got, err := normalize.Date("令和8年1月5日", normalize.DefaultEraBaseYear)
	require.NoError(t, err)

	again, err := normalize.Date(got.String(), normalize.DefaultEraBaseYear)
	require.NoError(t, err)
	assert.Equal(t, got.String(), again.String())
}

func TestDateEraBaseYear(t *testing.T) {
	// With a hypothetical era starting in 1989, era year 8 is 1996.
	got, err := normalize.Date("令和8年1月5日", 1989)
	require.NoError(t, err)
	assert.Equal(t, "1996-01-05", got.String())
}

func TestDateRejectsInvalidInput(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"近日",
		"2026-02-31",
		"令和8年2月31日",
		"R8.13/1",
		"2026/02/30",
		"2026年4月31日",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := normalize.Date(input, normalize.DefaultEraBaseYear)
			assert.Error(t, err)
		})
	}
}

func TestPhone(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"0881234567", "088-123-4567"},
		{"088-123-4567", "088-123-4567"},
		{"(088)123-4567", "088-123-4567"},
		{"（088）123-4567", "088-123-4567"},
		{"0312345678", "03-1234-5678"},
		{"0612345678", "06-1234-5678"},
		{"09012345678", "090-1234-5678"},
		{"12345", "12345"},
		{"なし", ""},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, normalize.Phone(tc.input))
		})
	}
}

func TestPhoneIdempotent(t *testing.T) {
	for _, input := range []string{"0881234567", "0312345678", "09012345678", "12345"} {
		once := normalize.Phone(input)
		assert.Equal(t, once, normalize.Phone(once), "input %q", input)
	}
}

func TestCanonicalize(t *testing.T) {
	raw := model.RawRecord{
		Species:     "雑種の犬",
		Sex:         "オス",
		Age:         "2歳",
		Color:       "茶色",
		Size:        "中型",
		ShelterDate: "令和8年1月5日",
		Location:    "高知県動物愛護センター",
		Phone:       "0881234567",
		ImageURLs:   []string{"https://example.com/a.jpg"},
		SourceURL:   "https://example.com/animals/1",
	}
	record, err := normalize.Canonicalize(raw, normalize.DefaultEraBaseYear)
	require.NoError(t, err)

	assert.Equal(t, model.SpeciesDog, record.Species)
	assert.Equal(t, model.SexMale, record.Sex)
	require.NotNil(t, record.AgeMonths)
	assert.Equal(t, 24, *record.AgeMonths)
	require.NotNil(t, record.Phone)
	assert.Equal(t, "088-123-4567", *record.Phone)
	assert.Equal(t, "2026-01-05", record.ShelterDate.String())
	assert.Equal(t, []string{"https://example.com/a.jpg"}, record.ImageURLs)
}

func TestCanonicalizeEmptyOptionalFields(t *testing.T) {
	raw := model.RawRecord{
		Species:     "猫",
		ShelterDate: "2026-03-01",
		SourceURL:   "https://example.com/animals/2",
	}
	record, err := normalize.Canonicalize(raw, normalize.DefaultEraBaseYear)
	require.NoError(t, err)

	assert.Equal(t, model.SexUnknown, record.Sex)
	assert.Nil(t, record.AgeMonths)
	assert.Nil(t, record.Color)
	assert.Nil(t, record.Size)
	assert.Nil(t, record.Location)
	assert.Nil(t, record.Phone)
	assert.NotNil(t, record.ImageURLs)
	assert.Empty(t, record.ImageURLs)
}

func TestCanonicalizeBadDateFailsRecord(t *testing.T) {
	raw := model.RawRecord{
		Species:     "犬",
		ShelterDate: "そのうち",
		SourceURL:   "https://example.com/animals/3",
	}
	_, err := normalize.Canonicalize(raw, normalize.DefaultEraBaseYear)
	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "shelter_date", validationErr.Field)
}

func intPtr(v int) *int { return &v }
