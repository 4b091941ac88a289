// Package model defines the record types shared across the collection pipeline.
package model

import (
	"fmt"
	"net/url"
)

// Species is the closed animal-species enum. The wire value is the native
// display string used by downstream consumers.
type Species string

// Species values accepted by Validate.
const (
	SpeciesDog   Species = "犬"
	SpeciesCat   Species = "猫"
	SpeciesOther Species = "その他"
)

// Sex is the closed sex enum.
type Sex string

// Sex values accepted by Validate.
const (
	SexMale    Sex = "男の子"
	SexFemale  Sex = "女の子"
	SexUnknown Sex = "不明"
)

// RawRecord is the all-string intermediate extracted from one detail page.
// Every field is always present; "missing" is the empty string, never an
// omitted field. RawRecords are consumed once by normalization and never
// persisted.
type RawRecord struct {
	Species     string
	Sex         string
	Age         string
	Color       string
	Size        string
	ShelterDate string
	Location    string
	Phone       string
	ImageURLs   []string
	SourceURL   string
}

// Record is the validated canonical form of one sheltered animal. SourceURL
// is the record's identity key. Records are value types: built once per run,
// compared against the prior snapshot, and never mutated.
type Record struct {
	Species     Species  `json:"species"`
	Sex         Sex      `json:"sex"`
	AgeMonths   *int     `json:"age_months"`
	Color       *string  `json:"color"`
	Size        *string  `json:"size"`
	ShelterDate Date     `json:"shelter_date"`
	Location    *string  `json:"location"`
	Phone       *string  `json:"phone"`
	ImageURLs   []string `json:"image_urls"`
	SourceURL   string   `json:"source_url"`
}

// ValidationError reports a canonical field that failed construction rules.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate enforces the canonical constraints: closed enums, non-negative
// age, a real shelter date, and well-formed absolute URLs.
func (r Record) Validate() error {
	switch r.Species {
	case SpeciesDog, SpeciesCat, SpeciesOther:
	default:
		return &ValidationError{Field: "species", Reason: fmt.Sprintf("%q is not a known species", string(r.Species))}
	}
	switch r.Sex {
	case SexMale, SexFemale, SexUnknown:
	default:
		return &ValidationError{Field: "sex", Reason: fmt.Sprintf("%q is not a known sex", string(r.Sex))}
	}
	if r.AgeMonths != nil && *r.AgeMonths < 0 {
		return &ValidationError{Field: "age_months", Reason: fmt.Sprintf("must not be negative, got %d", *r.AgeMonths)}
	}
	if r.ShelterDate.IsZero() {
		return &ValidationError{Field: "shelter_date", Reason: "required"}
	}
	if err := validateAbsoluteURL(r.SourceURL); err != nil {
		return &ValidationError{Field: "source_url", Reason: err.Error()}
	}
	for _, raw := range r.ImageURLs {
		if err := validateAbsoluteURL(raw); err != nil {
			return &ValidationError{Field: "image_urls", Reason: err.Error()}
		}
	}
	return nil
}

// Equal reports whether two records carry identical content, image order
// included. Identity (SourceURL) participates like any other field.
func (r Record) Equal(other Record) bool {
	if r.Species != other.Species ||
		r.Sex != other.Sex ||
		!intPtrEqual(r.AgeMonths, other.AgeMonths) ||
		!strPtrEqual(r.Color, other.Color) ||
		!strPtrEqual(r.Size, other.Size) ||
		!r.ShelterDate.Equal(other.ShelterDate) ||
		!strPtrEqual(r.Location, other.Location) ||
		!strPtrEqual(r.Phone, other.Phone) ||
		r.SourceURL != other.SourceURL {
		return false
	}
	if len(r.ImageURLs) != len(other.ImageURLs) {
		return false
	}
	for i := range r.ImageURLs {
		if r.ImageURLs[i] != other.ImageURLs[i] {
			return false
		}
	}
	return true
}

func validateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q is not absolute http(s)", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
