/**
 * @description
 * This file contains the HTTP handlers for the agent service's API
 * endpoints. Handlers are responsible for parsing incoming requests, calling
 * the appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer.
 *
 * @dependencies
 * - encoding/json, errors, net/http, time: Standard Go libraries.
 * - github.com/go-chi/chi/v5, github.com/google/uuid.
 * - github.com/golang-jwt/jwt/v5, golang.org/x/crypto/bcrypt: For login.
 * - internal/app, internal/domain, internal/store, pkg/llm.
 */
package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/SidhartK/per-account-agent/internal/app"
	"github.com/SidhartK/per-account-agent/internal/domain"
	"github.com/SidhartK/per-account-agent/internal/store"
	"github.com/SidhartK/per-account-agent/pkg/llm"
)

const sessionTTL = 30 * 24 * time.Hour

// AuthConfig carries the credentials the login handler verifies against.
type AuthConfig struct {
	Password     string
	PasswordHash string
	Secret       string
}

// Handlers holds the application service that handlers will use.
type Handlers struct {
	service *app.Service
	auth    AuthConfig
	logger  *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(service *app.Service, auth AuthConfig, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, auth: auth, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service-layer errors onto HTTP status codes.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrAccountNotFound):
		writeJSONError(w, http.StatusNotFound, "Account not found")
	case errors.Is(err, app.ErrInvalidState):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, llm.ErrUnknownProvider):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrModelBackend):
		writeJSONError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func accountIDFromURL(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// LoginHandler verifies the shared password and issues a session token,
// both as a cookie and in the response body.
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !h.verifyPassword(req.Password) {
		writeJSONError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(sessionTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(h.auth.Secret))
	if err != nil {
		h.logger.Error("failed to sign session token", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "token": signed})
}

func (h *Handlers) verifyPassword(candidate string) bool {
	if h.auth.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(h.auth.PasswordHash), []byte(candidate)) == nil
	}
	if h.auth.Password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(h.auth.Password), []byte(candidate)) == 1
}

// ListAccountsHandler returns all accounts, optionally filtered by status,
// each with its most recent message.
func (h *Handlers) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	var status *domain.AccountStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.AccountStatus(raw)
		status = &s
	}

	accounts, err := h.service.ListAccounts(r.Context(), status)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// CreateAccountHandler creates a new account in the initializing state.
func (h *Handlers) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateAccountInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.CreateAccount(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// GetAccountHandler returns one account with its conversation history.
func (h *Handlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDFromURL(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	account, err := h.service.GetAccountWithMessages(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// UpdateAccountHandler patches the allow-listed account fields.
func (h *Handlers) UpdateAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDFromURL(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	var input domain.UpdateAccountInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.UpdateAccount(r.Context(), id, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// DeleteAccountHandler removes an account and its messages.
func (h *Handlers) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDFromURL(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ToggleArchiveHandler flips an account between active and archived.
func (h *Handlers) ToggleArchiveHandler(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDFromURL(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	account, err := h.service.ToggleArchive(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// ChatHandler ingests a conversational turn and streams the assistant reply
// back as server-sent events. The final event carries the persisted message.
func (h *Handlers) ChatHandler(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDFromURL(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	var req struct {
		Messages []domain.Turn `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// The client sends its full transcript; only the latest user turn is new.
	var turn domain.Turn
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == domain.RoleUser {
			turn = req.Messages[i]
			break
		}
	}

	// Validate the target before committing stream headers so a missing or
	// archived account still gets its proper status code.
	if err := h.service.PrepareChat(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	onDelta := func(delta string) {
		payload, _ := json.Marshal(map[string]string{"delta": delta})
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	reply, err := h.service.Chat(r.Context(), id, turn, onDelta)
	if err != nil {
		// Headers are already committed; signal the failure in-stream.
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{"done": true, "message": reply})
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}

// SyncSummaryHandler triggers a manual summary resync for an active account.
func (h *Handlers) SyncSummaryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDFromURL(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	summary, err := h.service.SyncSummary(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

// NextActionsHandler derives next actions on demand and appends them to the
// conversation.
func (h *Handlers) NextActionsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDFromURL(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	actions, err := h.service.SuggestNextActions(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"actions": actions})
}

// RemindersHandler runs the reminder sweep immediately and returns the
// per-account outcomes.
func (h *Handlers) RemindersHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RunReminderSweep(r.Context(), time.Now())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
