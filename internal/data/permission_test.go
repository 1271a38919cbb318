package data

import "testing"

func TestPermissionsForRole(t *testing.T) {
    tests := []struct {
        role    string
        code    string
        granted bool
    }{
        {RoleStudent, PermExamsRead, true},
        {RoleStudent, PermSubmissionsCreate, true},
        {RoleStudent, PermExamsWrite, false},
        {RoleStudent, PermRecordsRead, false},
        {RoleTeacher, PermQuestionsWrite, true},
        {RoleTeacher, PermSubmissionsReview, true},
        {RoleTeacher, PermUsersManage, false},
        {RoleAdmin, PermUsersManage, true},
        {"ghost", PermExamsRead, false},
    }

    for _, tt := range tests {
        t.Run(tt.role+"/"+tt.code, func(t *testing.T) {
            if got := PermissionsForRole(tt.role).Include(tt.code); got != tt.granted {
                t.Errorf("got %v, want %v", got, tt.granted)
            }
        })
    }
}

func TestPermissionsForRoleReturnsCopy(t *testing.T) {
    p := PermissionsForRole(RoleStudent)
    p[0] = PermUsersManage

    if PermissionsForRole(RoleStudent).Include(PermUsersManage) {
        t.Error("mutating the returned slice changed the role table")
    }
}
