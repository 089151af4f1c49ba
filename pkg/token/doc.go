// Package token generates session tokens.
//
// Token format:
//
//   - 32 bytes from crypto/rand (256 bits of entropy)
//   - Base64 RawURL encoded, 43 characters
//
// The alphabet is cookie-safe (no '=', ';', ',' or whitespace), so a token
// can be placed into a Set-Cookie value without quoting.
package token
