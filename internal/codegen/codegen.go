// Package codegen produces candidate short codes.
package codegen

import gonanoid "github.com/matoous/go-nanoid/v2"

const (
	// Alphabet holds the characters a short code is drawn from.
	Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	// DefaultLength is the length of generated short codes.
	DefaultLength = 6
)

// NanoID generates random alphanumeric codes of a fixed length.
// Codes are not guaranteed to be unique; the store decides that.
type NanoID struct {
	length int
}

// New returns a NanoID generator. A non-positive length falls back to DefaultLength.
func New(length int) *NanoID {
	if length <= 0 {
		length = DefaultLength
	}

	return &NanoID{length: length}
}

// Generate returns a new candidate short code.
func (g *NanoID) Generate() string {
	// Only fails when crypto/rand cannot be read, which the runtime treats as fatal anyway.
	return gonanoid.MustGenerate(Alphabet, g.length)
}
