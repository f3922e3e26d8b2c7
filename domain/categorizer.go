// SPDX-License-Identifier: GPL-3.0-or-later

//go:generate mockgen -destination=mocks/categorizer.go -package=mocks . Categorizer
package domain

// Categorizer never fails: implementations fall back to UncategorizedLabel
// when the underlying call cannot produce a usable label.
type Categorizer interface {
	Categorize(content string) string
}
