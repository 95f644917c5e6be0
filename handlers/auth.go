package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/kotoba-app/kotoba-api/auth"
	"github.com/kotoba-app/kotoba-api/models"
)

func (db *DBHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		http.Error(w, "A valid email is required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "Email is already registered", http.StatusConflict)
			return
		}
		log.Println("signup failed:", err)
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	token, err := auth.CreateToken(user.ID, user.Email)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	auth.SetAuthCookie(w, token)

	writeJSON(w, http.StatusCreated, user)
}

func (db *DBHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var user models.User
	err := db.Where("email = ?", strings.TrimSpace(strings.ToLower(req.Email))).First(&user).Error
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		// Same response either way; don't reveal which part was wrong.
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := auth.CreateToken(user.ID, user.Email)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	auth.SetAuthCookie(w, token)

	writeJSON(w, http.StatusOK, user)
}

func (db *DBHandler) Signout(w http.ResponseWriter, r *http.Request) {
	auth.ClearAuthCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (db *DBHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := db.requireUser(w, r)
	if !ok {
		return
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
