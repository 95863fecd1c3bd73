package apikey

import (
	"crypto/rand"
)

// alphabet of the random part, 62 symbols.
var alphabet = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789") //nolint:gochecknoglobals

// randomString returns n characters drawn uniformly from alphabet.
// Random bytes above the largest multiple of len(alphabet) are rejected
// so every symbol has the same probability.
func randomString(n int) string {
	limit := 256 - (256 % len(alphabet))
	out := make([]byte, 0, n)
	buf := make([]byte, n+n/2)

	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic("apikey: reading random bytes: " + err.Error())
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}

	return string(out)
}
