package identity

type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleAdminViewer Role = "admin_viewer"
	RoleUser        Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdminViewer, RoleUser:
		return true
	}
	return false
}

// User is the authenticated caller as handed to us by the identity subsystem.
type User struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (u User) Authenticated() bool { return u.ID != "" && u.Role.Valid() }

type Action string

const (
	ActionApproveLoans  Action = "approve_loans"
	ActionUploadPayment Action = "upload_payment"
	ActionManageRates   Action = "manage_rates"
	ActionViewAdmin     Action = "view_admin"
)

// Policy answers capability questions; it is evaluated once at the top of each operation.
type Policy interface {
	Can(action Action, role Role) bool
}

// RolePolicy is a static action -> roles table.
type RolePolicy map[Action][]Role

// DefaultPolicy: approvals, payment uploads and rate changes are super-admin only;
// admin viewers can read the admin views.
func DefaultPolicy() RolePolicy {
	return RolePolicy{
		ActionApproveLoans:  {RoleSuperAdmin},
		ActionUploadPayment: {RoleSuperAdmin},
		ActionManageRates:   {RoleSuperAdmin},
		ActionViewAdmin:     {RoleSuperAdmin, RoleAdminViewer},
	}
}

func (p RolePolicy) Can(action Action, role Role) bool {
	for _, r := range p[action] {
		if r == role {
			return true
		}
	}
	return false
}
