package domain

// Role is the durable permission level of a room member.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

// Member is a durable room membership record. The real-time layer never owns
// these; it consults them through the room directory to authorize joins,
// sends and deletes.
type Member struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
	Role  Role   `json:"role"`
}

func NewMember(token string, user *User, role Role) *Member {
	if role == "" {
		role = RoleMember
	}
	return &Member{
		Token: token,
		User:  user,
		Role:  role,
	}
}

// CanDelete reports whether the member may delete a message sent by senderID.
// Members may delete their own messages; moderators and owners may delete any.
func (m *Member) CanDelete(senderID string) bool {
	if m == nil || m.User == nil {
		return false
	}
	if m.User.ID == senderID {
		return true
	}
	return m.Role == RoleOwner || m.Role == RoleModerator
}
