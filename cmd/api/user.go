package main

import (
	"errors"
	"net/http"

	"exams.zzh.net/internal/data"
	"exams.zzh.net/internal/validator"
)

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) error {
    var input struct {
        Name     string `json:"name"`
        Email    string `json:"email"`
        Password string `json:"password"`
        Role     string `json:"role"`
    }

    err := app.readJSON(w, r, &input)
    if err != nil {
        return err
    }

    if input.Role == "" {
        input.Role = data.RoleStudent
    }

    user := &data.User{
        Name:  input.Name,
        Email: input.Email,
        Role:  input.Role,
    }

    err = user.Password.Set(input.Password)
    if err != nil {
        return err
    }

    v := validator.New()

    // Teacher and admin roles are only ever granted through PATCH /users/:id/role.
    v.Check(user.Role == data.RoleStudent, "role", "must be student; other roles are granted by an administrator")

    if data.ValidateUser(v, user); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return nil
    }

    err = app.models.User.Insert(r.Context(), user)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrDuplicateEmail):
            v.AddError("email", "a user with this email address already exists")
            app.failedValidationResponse(w, r, v.Errors)
            return nil
        default:
            return err
        }
    }

    if app.mailer != nil {
        app.background(func() {
            data := map[string]any{
                "name":  user.Name,
                "email": user.Email,
                "role":  user.Role,
            }

            err := app.mailer.Send(user.Email, "user_welcome.tmpl", data)
            if err != nil {
                app.logger.Error("failed to send welcome email", "user_id", user.ID, "error", err.Error())
            }
        })
    }

    return app.writeJSON(w, http.StatusCreated, envelope{"user": user}, nil)
}

func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) error {
    var input struct {
        Email    string `json:"email"`
        Password string `json:"password"`
    }

    err := app.readJSON(w, r, &input)
    if err != nil {
        return err
    }

    v := validator.New()

    data.ValidateEmail(v, input.Email)
    data.ValidatePassword(v, input.Password)

    if !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return nil
    }

    user, err := app.models.User.GetByEmail(r.Context(), input.Email)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.invalidCredentialsResponse(w, r)
            return nil
        default:
            return err
        }
    }

    match, err := user.Password.Matches(input.Password)
    if err != nil {
        return err
    }

    if !match {
        app.invalidCredentialsResponse(w, r)
        return nil
    }

    token, err := app.tokens.Issue(user.ID)
    if err != nil {
        return err
    }

    return app.writeJSON(w, http.StatusCreated, envelope{"authentication_token": token, "user": user}, nil)
}

func (app *application) showCurrentUserHandler(w http.ResponseWriter, r *http.Request) error {
    user := app.contextGetUser(r)

    return app.writeJSON(w, http.StatusOK, envelope{"user": user, "permissions": user.Permissions()}, nil)
}

func (app *application) listUsersHandler(w http.ResponseWriter, r *http.Request) error {
    qs := r.URL.Query()
    v := validator.New()

    role := qs.Get("role")
    if role != "" {
        data.ValidateRole(v, role)
    }

    filter := data.ReadFilter(qs, v, "id", "id", "name", "email", "created_at", "-id", "-name", "-email", "-created_at")

    if data.ValidateFilter(v, filter); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return nil
    }

    users, metadata, err := app.models.User.GetAll(r.Context(), role, filter)
    if err != nil {
        return err
    }

    return app.writeJSON(w, http.StatusOK, envelope{"users": users, "metadata": metadata}, nil)
}

func (app *application) showUserHandler(w http.ResponseWriter, r *http.Request) error {
    id, err := app.readIDParam(r)
    if err != nil {
        app.recordNotFoundResponse(w, r)
        return nil
    }

    current := app.contextGetUser(r)
    if current.ID != id && !current.Permissions().Include(data.PermUsersManage) {
        app.notPermittedResponse(w, r)
        return nil
    }

    user, err := app.models.User.Get(r.Context(), id)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.recordNotFoundResponse(w, r)
            return nil
        default:
            return err
        }
    }

    return app.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
}

func (app *application) updateUserRoleHandler(w http.ResponseWriter, r *http.Request) error {
    id, err := app.readIDParam(r)
    if err != nil {
        app.recordNotFoundResponse(w, r)
        return nil
    }

    var input struct {
        Role string `json:"role"`
    }

    err = app.readJSON(w, r, &input)
    if err != nil {
        return err
    }

    v := validator.New()

    if data.ValidateRole(v, input.Role); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return nil
    }

    user, err := app.models.User.Get(r.Context(), id)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.recordNotFoundResponse(w, r)
            return nil
        default:
            return err
        }
    }

    user.Role = input.Role

    err = app.models.User.Update(r.Context(), user)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrEditConflict):
            app.editConflictResponse(w, r)
            return nil
        default:
            return err
        }
    }

    return app.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
}
