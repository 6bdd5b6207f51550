package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/tilford/calhold/internal/app"
	"github.com/tilford/calhold/internal/domain"
)

// AccountDirectory is the minimal interface for the calendar account registry.
type AccountDirectory interface {
	ConnectAccount(ctx context.Context, in app.ConnectAccountInput) (domain.CalendarAccount, error)
	DisconnectAccount(ctx context.Context, id string) error
	ListAccounts(ctx context.Context, userEmail string) ([]domain.CalendarAccount, error)
	MakePrimary(ctx context.Context, id string) error
}

// HandleAccounts routes GET /accounts?user= and POST /accounts.
func HandleAccounts(svc AccountDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listAccounts(svc, w, r)
		case http.MethodPost:
			connectAccount(svc, w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleAccountAction routes POST /accounts/{id}/disconnect and
// /accounts/{id}/primary.
func HandleAccountAction(svc AccountDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		id, action, ok := parseAccountActionPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		var err error
		switch action {
		case "disconnect":
			err = svc.DisconnectAccount(r.Context(), id)
		case "primary":
			err = svc.MakePrimary(r.Context(), id)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listAccounts(svc AccountDirectory, w http.ResponseWriter, r *http.Request) {
	userEmail := r.URL.Query().Get("user")
	accounts, err := svc.ListAccounts(r.Context(), userEmail)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, accountResponseFrom(a))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func connectAccount(svc AccountDirectory, w http.ResponseWriter, r *http.Request) {
	var req connectAccountRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	account, err := svc.ConnectAccount(r.Context(), app.ConnectAccountInput{
		UserEmail:     req.UserEmail,
		CalendarEmail: req.CalendarEmail,
		Credentials:   []byte(req.Credentials),
		Priority:      req.Priority,
		MakePrimary:   req.MakePrimary,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(accountResponseFrom(account))
}

func parseAccountActionPath(path string) (id, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "accounts" || parts[1] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

type connectAccountRequest struct {
	UserEmail     string `json:"user_email"`
	CalendarEmail string `json:"calendar_email"`
	Credentials   string `json:"credentials"`
	Priority      int    `json:"priority"`
	MakePrimary   bool   `json:"make_primary"`
}

// accountResponse deliberately omits the credential blob.
type accountResponse struct {
	ID            string    `json:"id"`
	UserEmail     string    `json:"user_email"`
	CalendarEmail string    `json:"calendar_email"`
	IsPrimary     bool      `json:"is_primary"`
	Priority      int       `json:"priority"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

func accountResponseFrom(a domain.CalendarAccount) accountResponse {
	return accountResponse{
		ID:            a.ID,
		UserEmail:     a.UserEmail,
		CalendarEmail: a.CalendarEmail,
		IsPrimary:     a.IsPrimary,
		Priority:      a.Priority,
		IsActive:      a.IsActive,
		CreatedAt:     a.CreatedAt,
	}
}
