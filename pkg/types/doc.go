// Package types defines the Connection and Pool interfaces, the connection
// options, document kinds, search result types and the standard error values
// for the QDB document store.
//
// Callers obtain a Connection from pkg/qdb, address nested values with dotted
// paths ("users.0.name" or "users[0].name") and distinguish outcomes with
// errors.Is against ErrAbsent, ErrRejected and ErrPartial.
package types
