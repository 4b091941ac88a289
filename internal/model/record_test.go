package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrescueapp/data-collector/internal/model"
)

func validRecord(t *testing.T) model.Record {
	t.Helper()
	date, err := model.ParseDate("2026-01-05")
	require.NoError(t, err)
	age := 24
	return model.Record{
		Species:     model.SpeciesDog,
		Sex:         model.SexMale,
		AgeMonths:   &age,
		ShelterDate: date,
		ImageURLs:   []string{"https://example.com/a.jpg"},
		SourceURL:   "https://example.com/animals/1",
	}
}

func TestRecordValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		require.NoError(t, validRecord(t).Validate())
	})

	t.Run("UnknownSpecies", func(t *testing.T) {
		record := validRecord(t)
		record.Species = model.Species("ハムスター")
		var validationErr *model.ValidationError
		require.ErrorAs(t, record.Validate(), &validationErr)
		assert.Equal(t, "species", validationErr.Field)
	})

	t.Run("UnknownSex", func(t *testing.T) {
		record := validRecord(t)
		record.Sex = model.Sex("male")
		var validationErr *model.ValidationError
		require.ErrorAs(t, record.Validate(), &validationErr)
		assert.Equal(t, "sex", validationErr.Field)
	})

	t.Run("NegativeAge", func(t *testing.T) {
		record := validRecord(t)
		age := -1
		record.AgeMonths = &age
		var validationErr *model.ValidationError
		require.ErrorAs(t, record.Validate(), &validationErr)
		assert.Equal(t, "age_months", validationErr.Field)
	})

	t.Run("MissingShelterDate", func(t *testing.T) {
		record := validRecord(t)
		record.ShelterDate = model.Date{}
		assert.Error(t, record.Validate())
	})

	t.Run("RelativeSourceURL", func(t *testing.T) {
		record := validRecord(t)
		record.SourceURL = "/animals/1"
		assert.Error(t, record.Validate())
	})

	t.Run("NonHTTPImageURL", func(t *testing.T) {
		record := validRecord(t)
		record.ImageURLs = []string{"ftp://example.com/a.jpg"}
		assert.Error(t, record.Validate())
	})
}

func TestRecordEqual(t *testing.T) {
	base := validRecord(t)

	t.Run("Identical", func(t *testing.T) {
		assert.True(t, base.Equal(validRecord(t)))
	})

	t.Run("SexDiffers", func(t *testing.T) {
		other := validRecord(t)
		other.Sex = model.SexFemale
		assert.False(t, base.Equal(other))
	})

	t.Run("NilVersusSetAge", func(t *testing.T) {
		other := validRecord(t)
		other.AgeMonths = nil
		assert.False(t, base.Equal(other))
	})

	t.Run("ImageOrderMatters", func(t *testing.T) {
		first := validRecord(t)
		first.ImageURLs = []string{"https://example.com/a.jpg", "https://example.com/b.jpg"}
		second := validRecord(t)
		second.ImageURLs = []string{"https://example.com/b.jpg", "https://example.com/a.jpg"}
		assert.False(t, first.Equal(second))
	})
}

func TestDate(t *testing.T) {
	t.Run("RejectsImpossibleDay", func(t *testing.T) {
		_, err := model.NewDate(2026, time.February, 31)
		assert.Error(t, err)
	})

	t.Run("JSONRoundTrip", func(t *testing.T) {
		date, err := model.ParseDate("2026-01-05")
		require.NoError(t, err)

		data, err := json.Marshal(date)
		require.NoError(t, err)
		assert.Equal(t, `"2026-01-05"`, string(data))

		var parsed model.Date
		require.NoError(t, json.Unmarshal(data, &parsed))
		assert.True(t, date.Equal(parsed))
	})

	t.Run("UnmarshalRejectsGarbage", func(t *testing.T) {
		var parsed model.Date
		assert.Error(t, json.Unmarshal([]byte(`"not-a-date"`), &parsed))
		assert.Error(t, json.Unmarshal([]byte(`42`), &parsed))
	})
}

func TestRecordJSONShape(t *testing.T) {
	record := validRecord(t)
	data, err := json.Marshal(record)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "犬", decoded["species"])
	assert.Equal(t, "男の子", decoded["sex"])
	assert.Equal(t, "2026-01-05", decoded["shelter_date"])
	assert.Nil(t, decoded["color"])
	assert.Contains(t, decoded, "phone")
}
