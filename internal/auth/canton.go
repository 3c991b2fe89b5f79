// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

package auth

// cantons enumerates the cantons of the federation's province. The
// registration form offers exactly these values; anything else is
// rejected.
var cantons = []string{
	"Ambato",
	"Baños",
	"Cevallos",
	"Mocha",
	"Patate",
	"Pelileo",
	"Píllaro",
	"Quero",
	"Tisaleo",
}

// Cantons returns the allowed canton values in form order.
func Cantons() []string {
	out := make([]string, len(cantons))
	copy(out, cantons)
	return out
}

// ValidCanton reports whether canton is a member of the enumerated list.
// Comparison is exact; the form submits canonical values.
func ValidCanton(canton string) bool {
	for _, c := range cantons {
		if c == canton {
			return true
		}
	}
	return false
}
