package domain

// Subscriber is one registered interest: notify Destination when AuthorID posts.
// Many subscribers may reference the same author.
type Subscriber struct {
	// AuthorID is the stable identity (DID) being followed.
	AuthorID string

	// Handle is the human-readable name the subscription was made with, if known.
	Handle string

	// Destination is where notifications go (for SMS, an E.164 phone number).
	Destination string
}
