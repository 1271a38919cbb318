package data

import (
	"slices"
)

// Roles a user can hold.
const (
    RoleStudent = "student"
    RoleTeacher = "teacher"
    RoleAdmin   = "admin"
)

// Roles lists every valid role.
var Roles = []string{RoleStudent, RoleTeacher, RoleAdmin}

// Permission codes checked by the route groups.
const (
    PermExamsRead         = "exams:read"
    PermExamsWrite        = "exams:write"
    PermQuestionsWrite    = "questions:write"
    PermSubmissionsCreate = "submissions:create"
    PermSubmissionsReview = "submissions:review"
    PermRecordsRead       = "records:read"
    PermRecordsWrite      = "records:write"
    PermUsersManage       = "users:manage"
)

// Permissions stores the permission codes for a single user.
type Permissions []string

// Include checks whether the Permissions slice contains a specific permission code.
func (p Permissions) Include(code string) bool {
    return slices.Contains(p, code)
}

var rolePermissions = map[string]Permissions{
    RoleStudent: {
        PermExamsRead,
        PermSubmissionsCreate,
    },
    RoleTeacher: {
        PermExamsRead,
        PermExamsWrite,
        PermQuestionsWrite,
        PermSubmissionsReview,
        PermRecordsRead,
        PermRecordsWrite,
    },
    RoleAdmin: {
        PermExamsRead,
        PermExamsWrite,
        PermQuestionsWrite,
        PermSubmissionsReview,
        PermRecordsRead,
        PermRecordsWrite,
        PermUsersManage,
    },
}

// PermissionsForRole returns the permission codes granted to role. Unknown roles get none.
func PermissionsForRole(role string) Permissions {
    return slices.Clone(rolePermissions[role])
}
