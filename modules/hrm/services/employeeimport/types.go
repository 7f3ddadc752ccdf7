package employeeimport

import (
	"strings"

	"github.com/go-faster/errors"
)

type Profile string

const (
	ProfileIndonesiaActive   Profile = "indonesia_active"
	ProfileIndonesiaInactive Profile = "indonesia_inactive"
	ProfileExpatActive       Profile = "expat_active"
	ProfileExpatInactive     Profile = "expat_inactive"
)

type Audience string

const (
	AudienceIndonesian Audience = "indonesian"
	AudienceExpatriate Audience = "expatriate"
)

var profiles = []Profile{ProfileIndonesiaActive, ProfileIndonesiaInactive, ProfileExpatActive, ProfileExpatInactive}

func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

func ParseProfile(s string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range profiles {
		if p == known {
			return p, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownProfile, "%q", s)
}

// Audience is the column-definition flag a profile reads. Active and inactive
// profiles of one nationality share it.
func (p Profile) Audience() Audience {
	switch p {
	case ProfileExpatActive, ProfileExpatInactive:
		return AudienceExpatriate
	default:
		return AudienceIndonesian
	}
}

type Policy string

const (
	PolicyUpdate Policy = "update"
	PolicySkip   Policy = "skip"
	PolicyError  Policy = "error"
)

// ParsePolicy returns fallback for an empty string.
func ParsePolicy(s string, fallback Policy) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		if fallback == "" {
			return PolicyUpdate, nil
		}
		return fallback, nil
	case PolicyUpdate, PolicySkip, PolicyError:
		return p, nil
	default:
		return "", errors.Wrapf(ErrUnknownPolicy, "%q", s)
	}
}

// FieldRef is the outcome of mapping one uploaded header.
type FieldRef struct {
	field  string
	slug   string
	mapped bool
}

func Mapped(field string) FieldRef {
	return FieldRef{field: field, mapped: true}
}

func Unmapped(slug string) FieldRef {
	return FieldRef{slug: slug}
}

func (r FieldRef) IsMapped() bool {
	return r.mapped
}

// Field is the canonical field name, empty when unmapped.
func (r FieldRef) Field() string {
	return r.field
}

// Slug is the slug-cased header of an unmapped column.
func (r FieldRef) Slug() string {
	return r.slug
}

// Row is one data row after header mapping. Ordinal is the spreadsheet row
// number with the header on row 1.
type Row struct {
	Ordinal int
	Values  map[string]any
}

// Request is one upload handed to DryRun or Commit.
type Request struct {
	Profile    string
	Policy     string
	SourceName string
	Headers    []string
	Rows       [][]any
}
