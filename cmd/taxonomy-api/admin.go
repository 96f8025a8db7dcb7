package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jacentio/nestedset"
)

const adminSessionTTL = 12 * time.Hour

// sessionStore keeps the opaque bearer tokens issued by the login
// endpoint. Tokens live in memory, so restarting the server logs every
// admin out.
type sessionStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

var adminSessions = &sessionStore{tokens: make(map[string]time.Time)}

func (s *sessionStore) issue() string {
	token := uuid.New().String()
	s.mu.Lock()
	s.tokens[token] = time.Now().Add(adminSessionTTL)
	s.mu.Unlock()
	return token
}

func (s *sessionStore) valid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(s.tokens, token)
		return false
	}
	return true
}

type AdminLoginRequest struct {
	Password string `json:"password"`
}

// POST /api/admin/login
func AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, APIResponse{Success: false, Message: "Not valid JSON"})
		return
	}

	hash := os.Getenv("ADMIN_PASSWORD_HASH")
	if hash == "" {
		WriteJSON(w, http.StatusServiceUnavailable, APIResponse{Success: false, Message: "Admin login is not configured"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		WriteJSON(w, http.StatusUnauthorized, APIResponse{Success: false, Message: "Wrong password"})
		return
	}

	WriteJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Login successfully",
		Data: map[string]interface{}{
			"token":      adminSessions.issue(),
			"expires_in": int64(adminSessionTTL.Seconds()),
		},
	})
}

// AdminAuthMiddleware guards the /api/admin subrouter with the bearer
// tokens handed out by AdminLoginHandler.
func AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !adminSessions.valid(token) {
			WriteJSON(w, http.StatusUnauthorized, APIResponse{Success: false, Message: "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GET /api/admin/categories/tree
//
// Unlike the public tree this one includes the sentinel root, so the
// response is the single row every category hangs off.
func AdminTreeHandler(w http.ResponseWriter, r *http.Request) {
	var rows []*Category
	if err := DB.Scopes(Categories.Ordered()).Find(&rows).Error; err != nil {
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Failed to load categories"})
		return
	}
	tree, err := nestedset.BuildTree(rows)
	if err != nil || len(tree) != 1 {
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Failed to assemble tree"})
		return
	}
	WriteJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Successfully", Data: tree[0]})
}
