package models

type Role string

const (
	RoleOperator   Role = "operator"
	RoleController Role = "controller"
)

func (r Role) Valid() bool { return r == RoleOperator || r == RoleController }

// Operator grants a role to an address. The operator master is configured, not stored.
type Operator struct {
	Address string `gorm:"primaryKey;type:varchar(42)" json:"address"`
	Role    Role   `gorm:"primaryKey;type:varchar(16)" json:"role"`
	AddedBy string `gorm:"type:varchar(42)" json:"added_by"`

	Timestamps
}
