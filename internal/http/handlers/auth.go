package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nmhung311/Exp-Gest-System/internal/domain"
	"github.com/nmhung311/Exp-Gest-System/internal/http/response"
	"github.com/nmhung311/Exp-Gest-System/internal/service"
	"github.com/nmhung311/Exp-Gest-System/pkg/auth"
	"github.com/nmhung311/Exp-Gest-System/pkg/logger"
)

type AuthHandler struct {
	Auth      service.AuthService
	JWTSecret string
}

func NewAuthHandler(svc service.AuthService, jwtSecret string) *AuthHandler {
	return &AuthHandler{Auth: svc, JWTSecret: jwtSecret}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Get("/me", h.me)
	r.Get("/users", h.listUsers)
	return r
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	user, err := h.Auth.Register(r.Context(), &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		response.BadRequest(w, "username and password are required")
		return
	}

	res, err := h.Auth.Login(r.Context(), &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logger.InfoContext(r.Context(), "user logged in", "user_id", res.User.ID)
	response.JSON(w, http.StatusOK, res)
}

// me resolves the opaque session token from the Authorization header.
func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Auth.ResolveSession(r.Context(), bearerToken(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"user": user})
}

// listUsers requires an admin access token.
func (h *AuthHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.Parse(bearerToken(r), h.JWTSecret)
	if err != nil {
		response.Unauthorized(w, "invalid access token")
		return
	}
	if claims.Role != "admin" {
		response.Forbidden(w, "admin access required")
		return
	}

	users, err := h.Auth.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"users": users})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}
