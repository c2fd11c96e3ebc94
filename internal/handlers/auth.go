package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/database"
	"hamkae-backend/internal/models"
	"hamkae-backend/pkg/utils"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string               `json:"token"`
	User  *models.UserResponse `json:"user"`
}

// Register creates a new user account.
func Register(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Username == "" || req.Name == "" {
			utils.Error(w, http.StatusBadRequest, "username and name are required")
			return
		}
		if len(req.Password) < 8 {
			utils.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}

		now := time.Now().Unix()
		user := &models.User{
			ID:        uuid.New().String(),
			Username:  req.Username,
			Password:  string(hashed),
			Name:      req.Name,
			Points:    0,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := store.CreateUser(user); err != nil {
			if errors.Is(err, common.ErrValidation) {
				utils.Error(w, http.StatusConflict, "username already taken")
				return
			}
			log.Printf("❌ Failed to create user: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Failed to create user")
			return
		}

		log.Printf("✅ User registered: %s", user.Username)
		resp := user.ToUserResponse()
		utils.JSON(w, http.StatusCreated, &resp)
	}
}

// Login checks credentials and issues a JWT.
func Login(store *database.Store, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		user, err := store.UserByUsername(req.Username)
		if err != nil {
			log.Printf("❌ Login failed, user not found: %s", req.Username)
			utils.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			log.Printf("❌ Invalid password for: %s", req.Username)
			utils.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id":  user.ID,
			"username": user.Username,
			"iat":      time.Now().Unix(),
			"exp":      time.Now().Add(7 * 24 * time.Hour).Unix(),
		})

		tokenString, err := token.SignedString([]byte(jwtSecret))
		if err != nil {
			log.Println("❌ Failed to create token")
			utils.Error(w, http.StatusInternalServerError, "Failed to create token")
			return
		}

		log.Printf("✅ Login successful: %s", user.Username)
		resp := user.ToUserResponse()
		utils.JSON(w, http.StatusOK, LoginResponse{
			Token: tokenString,
			User:  &resp,
		})
	}
}
