// Package api defines the request and response types of the portier HTTP
// API, the structured error model, and request validation.
//
// Principal password material never appears in any response type.
package api
