// Package identity defines the principal model, the credential store
// interface implemented by the storage backends (memory, postgres), and the
// password hashing primitives.
//
// The auth core only ever reads principals, and only through Lookup, which
// returns an explicit three-outcome result instead of an error that callers
// would have to pick apart.
package identity
