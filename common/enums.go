// Package common holds enumerations shared by configuration and the
// transform pipeline, so that doc does not have to import config.
package common

// Specification of automatic style emission.
// ENUM(css, inline, none)
type AutoStyleMode int

// Colour and stroke theme used by automatic styles.
// ENUM(default, light, dark, bold, fine, glass)
type Theme int

func (t Theme) Dark() bool {
	return t == ThemeDark
}
