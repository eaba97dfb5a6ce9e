// Package types defines the taxon entity, the data-type registry that decides
// what each taxon may hold, value and record validation, notifications, and
// the standard errors shared by every layer of the taxonomy editor.
package types
