// Package errors provides coded, actionable errors for the sugar CLI and
// its configuration.
//
// # Error Categories
//
// Errors are organized into categories:
//   - config: sugar.json could not be found, parsed or validated
//   - storage: a persistence backend could not be opened or used
//   - cli: bad arguments or a failed command
//   - store: a store operation was rejected
//
// # Error Codes
//
// Each error has a code (e.g. "S101") that maps to a short message and a
// longer explanation. Codes are grouped by category: S1xx config, S2xx
// storage, S3xx cli, S4xx store.
//
// # Usage
//
//	err := errors.New("S201").
//	    WithDetail("backend \"s3\" needs a bucket").
//	    WithSuggestion(`Set "storage.bucket" in sugar.json`).
//	    Wrap(cause)
//
//	errors.PrintError(os.Stderr, err)
//	// ERROR S201: Storage backend misconfigured
//	//
//	//   backend "s3" needs a bucket
//	//
//	//   Hint: Set "storage.bucket" in sugar.json
package errors
