package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/moneysplitter/backend/internal/errs"
	"github.com/moneysplitter/backend/internal/expense"
	"github.com/moneysplitter/backend/internal/models"
)

// errorBody is the wire shape of every failure response.
type errorBody struct {
	Error struct {
		Kind    errs.Kind `json:"kind"`
		Message string    `json:"message"`
	} `json:"error"`
}

// statusForKind maps the error taxonomy onto HTTP statuses.
func statusForKind(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindMembership, errs.KindSplitMismatch:
		return http.StatusUnprocessableEntity
	case errs.KindPaymentNotConfirmed:
		return http.StatusPaymentRequired
	case errs.KindOverpayment:
		return http.StatusConflict
	case errs.KindAdapterUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)
	var body errorBody
	body.Error.Kind = kind
	body.Error.Message = err.Error()
	writeJSON(w, statusForKind(kind), body)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.Validation("invalid request body: %v", err)
	}
	return nil
}

// Users

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Email == "" {
		writeError(w, errs.Validation("email is required"))
		return
	}
	if req.Name == "" {
		writeError(w, errs.Validation("name is required"))
		return
	}

	user := &models.User{Name: req.Name, Email: req.Email}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		slog.Error("CreateUser failed", "error", err)
		writeError(w, err)
		return
	}

	slog.Info("User registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Groups

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string   `json:"name"`
		MemberIDs []string `json:"memberIds"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, errs.Validation("name is required"))
		return
	}
	if len(req.MemberIDs) == 0 {
		writeError(w, errs.Validation("memberIds must not be empty"))
		return
	}

	// Every member must be a registered user.
	for _, id := range req.MemberIDs {
		if _, err := s.store.GetUser(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
	}

	group := &models.Group{Name: req.Name, MemberIDs: req.MemberIDs}
	if err := s.store.CreateGroup(r.Context(), group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		writeError(w, err)
		return
	}

	slog.Info("Group created", "group_id", group.ID, "members", len(group.MemberIDs))
	writeJSON(w, http.StatusCreated, group)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.store.GetGroup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["id"]
	if err := s.store.DeleteGroup(r.Context(), groupID); err != nil {
		writeError(w, err)
		return
	}
	slog.Info("Group deleted", "group_id", groupID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "group deleted"})
}

// Expenses

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expense.CreateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	// A payment reference routes through the verification flow.
	var created *models.Expense
	var err error
	if req.PaymentRef != "" {
		created, err = s.manager.ConfirmWithExternalPayment(r.Context(), &req)
	} else {
		created, err = s.manager.CreateExpense(r.Context(), &req)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleConfirmExpense(w http.ResponseWriter, r *http.Request) {
	var req expense.CreateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := s.manager.ConfirmWithExternalPayment(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.manager.ListExpenses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	found, err := s.manager.GetExpense(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	expenseID := mux.Vars(r)["id"]
	if err := s.manager.DeleteExpense(r.Context(), expenseID); err != nil {
		writeError(w, err)
		return
	}
	s.tracker.Forget(expenseID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "expense deleted"})
}

// shareStatus is one participant's settlement view.
type shareStatus struct {
	ParticipantID string          `json:"participantId"`
	OwedAmount    decimal.Decimal `json:"owedAmount"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Settled       bool            `json:"settled"`
}

func (s *Server) handleExpenseStatus(w http.ResponseWriter, r *http.Request) {
	found, err := s.manager.GetExpense(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	shares := make([]shareStatus, len(found.Shares))
	for i := range found.Shares {
		sh := &found.Shares[i]
		shares[i] = shareStatus{
			ParticipantID: sh.ParticipantID,
			OwedAmount:    sh.OwedAmount,
			AmountPaid:    sh.AmountPaid,
			Outstanding:   sh.Outstanding(),
			Settled:       sh.Settled,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"expenseId": found.ID,
		"status":    found.Status(),
		"shares":    shares,
	})
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ParticipantID string          `json:"participantId"`
		Amount        decimal.Decimal `json:"amount"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ParticipantID == "" {
		writeError(w, errs.Validation("participantId is required"))
		return
	}

	share, err := s.tracker.RecordPayment(r.Context(), mux.Vars(r)["id"], req.ParticipantID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, share)
}

func (s *Server) handleAttachContentRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContentHash string `json:"contentHash"`
		LedgerRef   string `json:"ledgerReference"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	expenseID := mux.Vars(r)["id"]
	if err := s.manager.AttachContentRecord(r.Context(), expenseID, req.ContentHash, req.LedgerRef); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"expenseId":       expenseID,
		"contentHash":     req.ContentHash,
		"ledgerReference": req.LedgerRef,
	})
}

func (s *Server) handleRecordOnLedger(w http.ResponseWriter, r *http.Request) {
	enriched, err := s.manager.RecordOnLedger(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"expenseId":       enriched.ID,
		"contentHash":     enriched.ContentHash,
		"ledgerReference": enriched.LedgerRef,
	})
}
