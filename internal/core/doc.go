// Package core holds the domain model of the expense records: the Record
// and its Status, the form-shaped Draft with its validation, amount parsing
// and formatting, and the per-status Report.
package core
