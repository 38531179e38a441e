package auth

// Identity represents an authenticated caller for the duration of a single
// request. It is a plain value: new capabilities are granted by adding
// fields or entries, not by substituting implementations.
type Identity struct {
	// Subject is the principal's unique identity (the email it logged in
	// with). Always non-empty.
	Subject string

	// Capabilities lists the capabilities granted to the principal beyond
	// "authenticated". Currently always empty.
	Capabilities []string
}
