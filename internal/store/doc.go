// Package store defines interfaces for persisting run history. Implementations
// live in sub-packages; this package must not import database drivers or
// concrete clients.
package store
