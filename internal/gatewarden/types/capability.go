package types

// Capability is the caller's authorization evidence, passed explicitly
// into gateway operations so the core stays decoupled from any one
// front-end's identity representation.
//
// The zero value carries no privileges.
type Capability struct {
	// Admin is the chat platform's native administrator flag.
	Admin bool
	// RoleIDs are the caller's platform role ids, matched against the
	// configured allow-list.
	RoleIDs []int64
}

// Administrator is the capability presented by trusted callers such as
// the HTTP front-ends, which are not authenticated per the deployment
// model (the API sits behind the operator's network boundary).
func Administrator() Capability {
	return Capability{Admin: true}
}
