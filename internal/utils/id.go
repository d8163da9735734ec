package utils

// DefaultShortIDLength is how many characters of an audit ID are shown
// in terminal messages.
const DefaultShortIDLength = 8

// ShortID returns the first n characters of id. If n is 0 or negative,
// DefaultShortIDLength is used.
//
//	ShortID("3f2a9c1e-7b4d-4e0a-9d51-2c8f0e6a1b7d", 0) → "3f2a9c1e"
func ShortID(id string, n int) string {
	if n <= 0 {
		n = DefaultShortIDLength
	}
	if len(id) <= n {
		return id
	}
	return id[:n]
}
