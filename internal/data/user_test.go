package data

import (
	"testing"

	"exams.zzh.net/internal/validator"
)

func TestPasswordSetAndMatches(t *testing.T) {
    var p password

    if err := p.Set("correct horse battery"); err != nil {
        t.Fatalf("Set: %v", err)
    }

    ok, err := p.Matches("correct horse battery")
    if err != nil || !ok {
        t.Errorf("Matches(correct) = %v, %v", ok, err)
    }

    ok, err = p.Matches("wrong password")
    if err != nil || ok {
        t.Errorf("Matches(wrong) = %v, %v", ok, err)
    }
}

func TestValidateUser(t *testing.T) {
    user := &User{Name: "Grace", Email: "grace@example.com", Role: RoleTeacher}
    if err := user.Password.Set("pa55word!"); err != nil {
        t.Fatal(err)
    }

    v := validator.New()
    ValidateUser(v, user)
    if !v.Valid() {
        t.Fatalf("unexpected errors %v", v.Errors)
    }

    user.Email = "grace"
    user.Role = "dean"
    if err := user.Password.Set("short"); err != nil {
        t.Fatal(err)
    }

    v = validator.New()
    ValidateUser(v, user)
    for _, key := range []string{"email", "role", "password"} {
        if _, ok := v.Errors[key]; !ok {
            t.Errorf("expected error for %s", key)
        }
    }
}

func TestAnonymousUser(t *testing.T) {
    if !AnonymousUser.IsAnonymous() {
        t.Error("AnonymousUser should be anonymous")
    }
    if (&User{}).IsAnonymous() {
        t.Error("a fresh User is not the AnonymousUser")
    }
    if len(AnonymousUser.Permissions()) != 0 {
        t.Error("AnonymousUser should have no permissions")
    }
}
