package domain

// Role is the authorization level carried by a session.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// roleRank orders the closed role set; a higher rank includes every lower one.
var roleRank = map[Role]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

// Valid reports whether r belongs to the known role set.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Satisfies reports whether a caller holding r may perform an action that
// requires the role required. Unknown roles satisfy nothing.
func (r Role) Satisfies(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	need, ok := roleRank[required]
	if !ok {
		return false
	}
	return have >= need
}
