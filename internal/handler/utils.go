package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"tush00nka/beseda/internal/pkg/auth"
	"tush00nka/beseda/internal/pkg/httputils"
	"tush00nka/beseda/internal/service"
)

type PongResponse struct {
	Message string `json:"message"`
}

// Ping
// @Summary Пингануть сервер
// @Description Пингануть сервер
// @Tags system
// @Produce json
// @Success 200 {object} PongResponse
// @Failure 404
// @Router /ping [get]
func Ping(w http.ResponseWriter, r *http.Request) {
	httputils.ResponseJSON(w, 200, PongResponse{Message: "Pong"})
}

// currentClaims достает access-токен из куки или заголовка Authorization
// и проверяет его. Отсутствие валидного токена — ErrUnauthenticated.
func currentClaims(r *http.Request, tokens *auth.TokenManager) (*auth.Claims, error) {
	var tokenStr string

	if c, err := r.Cookie(auth.AccessTokenCookie); err == nil {
		tokenStr = c.Value
	}

	if tokenStr == "" {
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			tokenStr = strings.TrimPrefix(header, "Bearer ")
		}
	}

	if tokenStr == "" {
		return nil, service.ErrUnauthenticated
	}

	claims, err := tokens.Validate(tokenStr, auth.AccessToken)
	if err != nil {
		return nil, service.ErrUnauthenticated
	}

	return claims, nil
}

// respondServiceError переводит типизированные ошибки ядра в HTTP-статусы.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		httputils.ResponseError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotAParticipant):
		httputils.ResponseError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrChatNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrParticipantsNotFound):
		httputils.ResponseError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrGroupNameRequired),
		errors.Is(err, service.ErrParticipantsRequired),
		errors.Is(err, service.ErrEmptyMessage):
		httputils.ResponseError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("handler: internal error: %v", err)
		httputils.ResponseError(w, http.StatusInternalServerError, "internal server error")
	}
}
