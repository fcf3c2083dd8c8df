package entity

// TokenClaims are the validated claims of a session token issued by the
// external auth service. Department tokens carry the department name in
// both Name and DepartmentName; user tokens leave DepartmentName empty.
type TokenClaims struct {
	UserId         string     `json:"userId"`
	Name           string     `json:"name"`
	UserType       SenderType `json:"userType"`
	DepartmentName string     `json:"departmentName,omitempty"`
}

// SenderId returns the canonical sender identifier for chat messages:
// the user id for citizens, the department name for departments.
func (c TokenClaims) SenderId() string {
	if c.UserType == SenderDepartment {
		return c.DepartmentName
	}
	return c.UserId
}
