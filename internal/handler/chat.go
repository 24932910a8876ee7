package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"tush00nka/beseda/internal/pkg/auth"
	"tush00nka/beseda/internal/pkg/httputils"
	"tush00nka/beseda/internal/service"

	"github.com/gorilla/mux"
)

type ChatHandler struct {
	chatService service.ChatService
	tokens      *auth.TokenManager
}

func NewChatHandler(chatService service.ChatService, tokens *auth.TokenManager) *ChatHandler {
	return &ChatHandler{chatService: chatService, tokens: tokens}
}

func (h *ChatHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/chats", h.getUserChats).Methods("GET", "OPTIONS")
	router.HandleFunc("/chats/direct", h.openOrCreateChat).Methods("POST", "OPTIONS")
	router.HandleFunc("/chats/group", h.createGroupChat).Methods("POST", "OPTIONS")
	router.HandleFunc("/chat/{id:[0-9]+}", h.getChat).Methods("GET", "OPTIONS")
	router.HandleFunc("/chat/{id:[0-9]+}/messages", h.getMessages).Methods("GET", "OPTIONS")
	router.HandleFunc("/chat/{id:[0-9]+}/messages", h.sendMessage).Methods("POST")
	router.HandleFunc("/chat/{id:[0-9]+}/participants", h.addParticipant).Methods("POST", "OPTIONS")
	router.HandleFunc("/chat/{id:[0-9]+}/participants/{userId:[0-9]+}", h.removeParticipant).Methods("DELETE", "OPTIONS")
}

func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// @Summary Get chat
// @Description Чат по ID с участниками
// @Tags chats
// @Produce json
// @Success 200 {object} model.Chat
// @Failure 401 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Param id path int true "Chat ID"
// @Router /chat/{id} [get]
func (h *ChatHandler) getChat(w http.ResponseWriter, r *http.Request) {
	if _, err := currentClaims(r, h.tokens); err != nil {
		respondServiceError(w, err)
		return
	}

	chatID, ok := pathID(r, "id")
	if !ok {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid chat ID")
		return
	}

	chat, err := h.chatService.GetChatByID(r.Context(), chatID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, chat)
}

// @Summary User chats
// @Description Чаты текущего пользователя, свежие сверху, каждый с последним сообщением
// @Tags chats
// @Produce json
// @Success 200 {object} []model.Chat
// @Failure 401 {object} httputils.ErrorResponse
// @Router /chats [get]
func (h *ChatHandler) getUserChats(w http.ResponseWriter, r *http.Request) {
	claims, err := currentClaims(r, h.tokens)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	chats, err := h.chatService.GetUserChats(r.Context(), claims.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, chats)
}

// @Summary Chat messages
// @Description Сообщения чата по возрастанию времени, с пагинацией
// @Tags chats
// @Produce json
// @Success 200 {object} []model.Message
// @Failure 401 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Param id path int true "Chat ID"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Router /chat/{id}/messages [get]
func (h *ChatHandler) getMessages(w http.ResponseWriter, r *http.Request) {
	if _, err := currentClaims(r, h.tokens); err != nil {
		respondServiceError(w, err)
		return
	}

	chatID, ok := pathID(r, "id")
	if !ok {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid chat ID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	messages, err := h.chatService.GetChatMessages(r.Context(), chatID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, messages)
}

type openChatRequest struct {
	OtherUserID uint `json:"other_user_id"`
}

// @Summary Open or create direct chat
// @Description Вернуть личный чат с пользователем, создав при первом обращении
// @Tags chats
// @Accept json
// @Produce json
// @Success 200 {object} model.Chat
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 401 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Param request body openChatRequest true "Other user"
// @Router /chats/direct [post]
func (h *ChatHandler) openOrCreateChat(w http.ResponseWriter, r *http.Request) {
	claims, err := currentClaims(r, h.tokens)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var request openChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	r.Body.Close()

	chat, err := h.chatService.FindOrCreateDirectChat(r.Context(), claims.UserID, request.OtherUserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, chat)
}

type createGroupChatRequest struct {
	Name           string `json:"name"`
	ParticipantIDs []uint `json:"participant_ids"`
}

// @Summary Create group chat
// @Description Создать групповой чат; создатель добавляется в участники автоматически
// @Tags chats
// @Accept json
// @Produce json
// @Success 201 {object} model.Chat
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 401 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Param request body createGroupChatRequest true "Group chat"
// @Router /chats/group [post]
func (h *ChatHandler) createGroupChat(w http.ResponseWriter, r *http.Request) {
	claims, err := currentClaims(r, h.tokens)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var request createGroupChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	r.Body.Close()

	chat, err := h.chatService.CreateGroupChat(r.Context(), request.Name, claims.UserID, request.ParticipantIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, chat)
}

type participantRequest struct {
	UserID uint `json:"user_id"`
}

// @Summary Add participant
// @Description Добавить пользователя в чат; повторное добавление — no-op
// @Tags chats
// @Accept json
// @Produce json
// @Success 200 {object} model.Chat
// @Failure 401 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Param id path int true "Chat ID"
// @Param request body participantRequest true "Participant"
// @Router /chat/{id}/participants [post]
func (h *ChatHandler) addParticipant(w http.ResponseWriter, r *http.Request) {
	if _, err := currentClaims(r, h.tokens); err != nil {
		respondServiceError(w, err)
		return
	}

	chatID, ok := pathID(r, "id")
	if !ok {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid chat ID")
		return
	}

	var request participantRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	r.Body.Close()

	chat, err := h.chatService.AddParticipant(r.Context(), chatID, request.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, chat)
}

// @Summary Remove participant
// @Description Убрать пользователя из чата; отсутствующий — no-op
// @Tags chats
// @Produce json
// @Success 200 {object} model.Chat
// @Failure 401 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Param id path int true "Chat ID"
// @Param userId path int true "User ID"
// @Router /chat/{id}/participants/{userId} [delete]
func (h *ChatHandler) removeParticipant(w http.ResponseWriter, r *http.Request) {
	if _, err := currentClaims(r, h.tokens); err != nil {
		respondServiceError(w, err)
		return
	}

	chatID, ok := pathID(r, "id")
	if !ok {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid chat ID")
		return
	}

	userID, ok := pathID(r, "userId")
	if !ok {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	chat, err := h.chatService.RemoveParticipant(r.Context(), chatID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, chat)
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// @Summary Send message
// @Description Отправить сообщение в чат. Сохраняется в базе, онлайн-участники получают push
// @Tags chats
// @Accept json
// @Produce json
// @Success 201 {object} model.Message
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 401 {object} httputils.ErrorResponse
// @Failure 403 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Param id path int true "Chat ID"
// @Param request body sendMessageRequest true "Message"
// @Router /chat/{id}/messages [post]
func (h *ChatHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	claims, err := currentClaims(r, h.tokens)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	chatID, ok := pathID(r, "id")
	if !ok {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid chat ID")
		return
	}

	var request sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	r.Body.Close()

	msg, err := h.chatService.SendMessage(r.Context(), chatID, claims.UserID, request.Content)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, msg)
}
