// Package conv provides bounds-checked integer conversions for values read
// from or written to persistent formats (headers, counts, dimensions).
//
// Conversions that are safe by construction, such as loop indices, should
// use plain casts.
package conv
