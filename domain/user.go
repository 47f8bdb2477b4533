package domain

type UserRole string

const (
	Guest  UserRole = "Guest"
	Host   UserRole = "Host"
	Admin  UserRole = "Admin"
	System UserRole = "System"
)

// Actor is the resolved caller the auth service hands us. The core never
// parses credentials itself.
type Actor struct {
	ID    string   `json:"id"`
	Role  UserRole `json:"userRole"`
	Email string   `json:"email,omitempty"`
}

func SystemActor() Actor {
	return Actor{ID: "system", Role: System}
}
