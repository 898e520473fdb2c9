package ports

// RedirectState is the payload carried to the login page when a protected
// page bounces an unauthenticated visitor. A nil *RedirectState means no state.
type RedirectState struct {
	From string `json:"from"`
}

// NavigateOptions mirrors the history contract of the host.
type NavigateOptions struct {
	// Replace swaps the current history entry instead of pushing a new one.
	Replace bool
	State   *RedirectState
}

// Navigator moves the client to another page.
type Navigator interface {
	Navigate(path string, opts NavigateOptions)
}
