// Package account implements the account management operations behind the
// HTTP surface: signup, login, and principal CRUD. It orchestrates the
// identity store, password hashing, and token issuance; it contains no HTTP
// concerns.
package account
