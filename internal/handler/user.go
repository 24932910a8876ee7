package handler

import (
	"net/http"

	"tush00nka/beseda/internal/pkg/auth"
	"tush00nka/beseda/internal/pkg/httputils"
	"tush00nka/beseda/internal/service"

	"github.com/gorilla/mux"
)

type UserHandler struct {
	userService service.UserService
	tokens      *auth.TokenManager
}

func NewUserHandler(userService service.UserService, tokens *auth.TokenManager) *UserHandler {
	return &UserHandler{userService: userService, tokens: tokens}
}

func (h *UserHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/me", h.getCurrentUser).Methods("GET", "OPTIONS")
	router.HandleFunc("/users", h.getAllUsers).Methods("GET", "OPTIONS")
}

// @Summary Current user
// @Description Вернуть пользователя, привязанного к access-токену
// @Tags users
// @Produce json
// @Success 200 {object} model.User
// @Failure 401 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Router /me [get]
func (h *UserHandler) getCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, err := currentClaims(r, h.tokens)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	user, err := h.userService.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, user)
}

// @Summary All users
// @Description Список всех пользователей
// @Tags users
// @Produce json
// @Success 200 {object} []model.User
// @Failure 401 {object} httputils.ErrorResponse
// @Router /users [get]
func (h *UserHandler) getAllUsers(w http.ResponseWriter, r *http.Request) {
	if _, err := currentClaims(r, h.tokens); err != nil {
		respondServiceError(w, err)
		return
	}

	users, err := h.userService.GetAllUsers(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, users)
}
