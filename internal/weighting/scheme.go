package weighting

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidScheme = errors.New("invalid democracy scheme")

// Scheme selects how representational weight is distributed across models.
type Scheme string

const (
	SchemeVariant   Scheme = "variant"
	SchemeModel     Scheme = "model"
	SchemeInstitute Scheme = "institute"
	SchemeCountry   Scheme = "country"
	SchemeFamily    Scheme = "family"
	SchemeCode      Scheme = "code"
)

// Schemes returns every supported scheme.
func Schemes() []Scheme {
	return []Scheme{SchemeVariant, SchemeModel, SchemeInstitute, SchemeCountry, SchemeFamily, SchemeCode}
}

func (s Scheme) Valid() bool {
	for _, v := range Schemes() {
		if s == v {
			return true
		}
	}
	return false
}

// Grouped reports whether the scheme is a plain group-key scheme.
func (s Scheme) Grouped() bool {
	switch s {
	case SchemeModel, SchemeInstitute, SchemeCountry, SchemeFamily:
		return true
	}
	return false
}

// ParseScheme validates a scheme tag.
func ParseScheme(s string) (Scheme, error) {
	scheme := Scheme(strings.TrimSpace(s))
	if !scheme.Valid() {
		names := make([]string, 0, len(Schemes()))
		for _, v := range Schemes() {
			names = append(names, string(v))
		}
		return "", fmt.Errorf("%w %q: must be one of %s", ErrInvalidScheme, s, strings.Join(names, ", "))
	}
	return scheme, nil
}
