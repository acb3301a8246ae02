// Package internal holds the small helpers shared across the service
// packages.
package internal

// Version is the release version reported by the CLI.
const Version = "0.1.0"

// SanitizeFilename creates a safe filename from a string
func SanitizeFilename(s string) string {
	result := ""
	for _, r := range s {
		if isAlphaNumeric(r) || r == '-' || r == '_' {
			result += string(r)
		} else {
			result += "_"
		}
	}
	return result
}

// isAlphaNumeric checks if a rune is a Latin or Cyrillic letter or digit
func isAlphaNumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || (r >= 'а' && r <= 'я') ||
		(r >= 'А' && r <= 'Я') || r == 'ä' || r == 'ö' || r == 'ü' ||
		r == 'Ä' || r == 'Ö' || r == 'Ü' || r == 'ß'
}
