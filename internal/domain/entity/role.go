package entity

// Role is a flat authorization role. There is no hierarchy between roles;
// permission checks are plain membership tests.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
