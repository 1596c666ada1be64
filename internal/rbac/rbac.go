package rbac

type Role string
type Action string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

const (
	ActionRead     Action = "read"
	ActionReport   Action = "report"
	ActionVote     Action = "vote"
	ActionComment  Action = "comment"
	ActionVerify   Action = "verify"
	ActionModerate Action = "moderate"
	ActionManage   Action = "manage"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleCitizen:
		switch action {
		case ActionRead, ActionReport, ActionVote, ActionComment, ActionVerify, ActionModerate:
			return true
		}
		return false
	default:
		return false
	}
}

// ForUser maps the credential admin flag to a role.
func ForUser(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}
	return RoleCitizen
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleCitizen, RoleAdmin:
		return Role(role)
	default:
		return RoleCitizen
	}
}
