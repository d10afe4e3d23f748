package domain

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
	// RoleSystem is used by internal jobs (expiry sweeper), never issued in tokens.
	RoleSystem Role = "system"
)

// Actor identifies who performs a lifecycle call. Handlers build it from the
// token claims; services never look authorization up themselves.
type Actor struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

func (a Actor) IsAdmin() bool  { return a.Role == RoleAdmin }
func (a Actor) IsSystem() bool { return a.Role == RoleSystem }

func SystemActor() Actor { return Actor{ID: 0, Role: RoleSystem} }
