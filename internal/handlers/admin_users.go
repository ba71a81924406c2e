package handlers

import (
	"net/http"

	"codewithbrain/internal/models"
)

// ListUsers returns every staff account. Admin only.
func (a *Admin) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List(r.Context())
	if err != nil {
		serverError(w, "admin list users failed", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateUser creates a staff account. Admin only. New accounts default to
// the author role.
func (a *Admin) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in userInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.trim()
	if !checkInput(w, &in) {
		return
	}

	created, err := a.users.Create(r.Context(), &models.User{
		Username:    in.Username,
		Email:       in.Email,
		DisplayName: in.DisplayName,
		Role:        in.Role,
	}, in.Password)
	if err != nil {
		writeStoreError(w, "admin create user failed", err)
		return
	}

	a.record(r.Context(), r, models.KindUser, created, created.ID.String(), models.ActionAddition, msgAdded)
	writeJSON(w, http.StatusCreated, created)
}

// DeleteUser removes a staff account and everything they authored. Admin
// only; admins cannot delete themselves.
func (a *Admin) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if me := actor(r); me != nil && me.ID == id {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	user, err := a.users.FindByID(r.Context(), id)
	if err != nil {
		serverError(w, "admin find user failed", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err := a.users.Delete(r.Context(), id); err != nil {
		writeStoreError(w, "admin delete user failed", err)
		return
	}

	a.record(r.Context(), r, models.KindUser, user, user.ID.String(), models.ActionDeletion, msgDeleted)
	w.WriteHeader(http.StatusNoContent)
}

// Log returns the most recent change-log entries.
func (a *Admin) Log(w http.ResponseWriter, r *http.Request) {
	entries, err := a.log.Recent(r.Context(), logLimit)
	if err != nil {
		serverError(w, "admin recent log failed", err)
		return
	}
	if entries == nil {
		entries = []models.LogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
