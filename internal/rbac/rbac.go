package rbac

type Role string
type Action string

const (
	RoleUser  Role = "user"
	RolePro   Role = "pro"
	RoleAdmin Role = "admin"
)

const (
	ActionUseTools      Action = "use_tools"
	ActionUseProTools   Action = "use_pro_tools"
	ActionManageCatalog Action = "manage_catalog"
	ActionManageUsers   Action = "manage_users"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RolePro:
		return action == ActionUseTools || action == ActionUseProTools
	case RoleUser:
		return action == ActionUseTools
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleUser, RolePro, RoleAdmin:
		return Role(role)
	default:
		return RoleUser
	}
}
