package controllers

import (
	"net/http"

	"quill/app/auth"
	"quill/app/models"
	"quill/app/services"
)

type tokenResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// UserController handles accounts and API tokens
type UserController struct {
	userService *services.UserService
}

// NewUserController creates a new UserController
func NewUserController(userService *services.UserService) *UserController {
	return &UserController{userService: userService}
}

// Register creates an account and returns its first token
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		sendError(w, r, err)
		return
	}

	user, token, err := uc.userService.Register(r.Context(), in)
	if err != nil {
		sendError(w, r, err)
		return
	}
	SendJSON(w, http.StatusCreated, tokenResponse{User: user, Token: token})
}

// Login exchanges credentials for a new token
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		sendError(w, r, err)
		return
	}

	user, token, err := uc.userService.Login(r.Context(), in)
	if err != nil {
		sendError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, tokenResponse{User: user, Token: token})
}

// Logout revokes the caller's token
func (uc *UserController) Logout(w http.ResponseWriter, r *http.Request) {
	if err := uc.userService.Logout(r.Context(), auth.UserFromContext(r.Context())); err != nil {
		sendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Show returns the caller
func (uc *UserController) Show(w http.ResponseWriter, r *http.Request) {
	user, err := uc.userService.GetUser(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		sendError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, user)
}

// Delete removes the caller's account with everything they wrote
func (uc *UserController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := uc.userService.DeleteAccount(r.Context(), auth.UserFromContext(r.Context())); err != nil {
		sendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
