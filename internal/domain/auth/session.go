package auth

// Role names a session variant.
type Role string

const (
	RoleLoggedOut Role = "logged_out"
	RolePlayer    Role = "player"
	RoleParent    Role = "parent"
	RoleCoach     Role = "coach"
	RoleAdmin     Role = "admin"
)

// Session is the closed set of login states. Only the types in this
// package implement it.
type Session interface {
	Role() Role
	sealed()
}

type LoggedOut struct{}

// Player is a logged-in player.
type Player struct{ Name string }

// Parent is logged in on behalf of the named player.
type Parent struct{ Name string }

type Coach struct{}

type Admin struct{}

func (LoggedOut) Role() Role { return RoleLoggedOut }
func (Player) Role() Role    { return RolePlayer }
func (Parent) Role() Role    { return RoleParent }
func (Coach) Role() Role     { return RoleCoach }
func (Admin) Role() Role     { return RoleAdmin }

func (LoggedOut) sealed() {}
func (Player) sealed()    {}
func (Parent) sealed()    {}
func (Coach) sealed()     {}
func (Admin) sealed()     {}

// Subject is the player a player or parent session acts for.
func Subject(s Session) (string, bool) {
	switch v := s.(type) {
	case Player:
		return v.Name, true
	case Parent:
		return v.Name, true
	default:
		return "", false
	}
}

// CanActFor reports whether s may change data belonging to player.
func CanActFor(s Session, player string) bool {
	switch v := s.(type) {
	case Player:
		return v.Name == player
	case Parent:
		return v.Name == player
	case Coach, Admin:
		return true
	default:
		return false
	}
}

// HasRole reports whether s is one of roles.
func HasRole(s Session, roles ...Role) bool {
	if s == nil {
		return false
	}
	for _, r := range roles {
		if s.Role() == r {
			return true
		}
	}
	return false
}
