// Package assets loads the two UTF-8 banner files ("penger" and
// "penger title"). Deliberately the thinnest package in the module — asset
// loading is an external collaborator, not core scope. The tuiview
// renderer does not call it, so no banner is drawn on any screen.
package assets

import "os"

const missingText = "(asset missing)"

// Banner loads the named asset file, substituting missingText on any error.
func Banner(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return missingText
	}
	return string(b)
}

// Penger loads the "penger" ascii art file.
func Penger(dir string) string { return Banner(dir + "/penger") }

// PengerTitle loads the "penger title" ascii art file.
func PengerTitle(dir string) string { return Banner(dir + "/penger title") }
