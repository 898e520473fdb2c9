package domain

// Session is a point-in-time copy of the client-held authentication state.
// Authenticated is true iff User is non-nil.
type Session struct {
	Authenticated      bool
	User               *User
	AuthExpiredMessage string
	// Version increments on every effective mutation of the store.
	Version uint64
}
