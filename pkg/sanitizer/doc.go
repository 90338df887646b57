// Package sanitizer normalizes user input before validation and storage.
//
// All normalization functions are idempotent: applying them twice gives the
// same result as applying them once. Invalid input yields an empty string
// rather than an error, so validators downstream report the problem.
//
// Normalization includes:
//   - Phone numbers: E.164 (+254712345678), parsed with East African regions
//   - Names and free text: collapse whitespace, trim, drop control characters
//   - Labels and emails: lowercase after trimming
//   - Slices: drop empty values and duplicates after normalization
package sanitizer
