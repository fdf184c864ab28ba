package domain

// Role distinguishes quiz authors from quiz takers.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// Identity is the authenticated caller. It is a value; changes produce a new Identity.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// WithName returns a copy of the identity carrying the new display name.
func (i Identity) WithName(name string) Identity {
	i.Name = name
	return i
}

func (i Identity) IsTeacher() bool { return i.Role == RoleTeacher }

func (i Identity) IsStudent() bool { return i.Role == RoleStudent }
