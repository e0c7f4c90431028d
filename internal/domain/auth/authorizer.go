package auth

// RequestMetadata captures per-request client attributes for downstream
// rate-limiting and audit consumers.
type RequestMetadata struct {
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	Origin    string `json:"origin"`
}

// Authorizer is the identity attached to an inbound request. It is a closed
// sum: a request is either Authenticated with a verified identity or
// Anonymous, and downstream handlers type-switch on it rather than probing
// optional fields.
type Authorizer interface {
	isAuthorizer()
}

// Authenticated carries the identity of a request whose bearer token passed
// signature and expiry verification. It is only ever constructed by the
// authentication middleware.
type Authenticated struct {
	UserID   string
	Email    string
	Metadata RequestMetadata
}

// Anonymous marks a request with no verified identity.
type Anonymous struct{}

func (Authenticated) isAuthorizer() {}
func (Anonymous) isAuthorizer()     {}
