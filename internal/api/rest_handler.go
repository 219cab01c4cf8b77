package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"privacy_rules/internal/domain"
	"privacy_rules/internal/editor"
	"privacy_rules/internal/scrubber"
	"privacy_rules/pkg/crypto"
	"privacy_rules/pkg/validator"
	"strconv"
	"sync"
	"time"
)

const maxPreviewBody = 1 << 20

// APIHandler is the presentation adapter for one editing session. The
// session's store is single-owner, so every access goes through mu.
type APIHandler struct {
	mu             sync.Mutex
	session        *editor.Session
	signer         *crypto.Signer
	logger         *slog.Logger
	requestTimeout time.Duration
}

func NewAPIHandler(
	session *editor.Session,
	signer *crypto.Signer,
	logger *slog.Logger,
	requestTimeout time.Duration,
) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return &APIHandler{
		session:        session,
		signer:         signer,
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

type RuleRequest struct {
	Action domain.ActionType `json:"action"`
	Data   domain.DataType   `json:"data"`
	From   string            `json:"from"`
}

type RuleView struct {
	domain.Rule
	Errors map[validator.Field]string `json:"errors,omitempty"`
}

type CollectionResponse struct {
	Rules []RuleView   `json:"rules"`
	State editor.State `json:"state"`
	Dirty bool         `json:"dirty"`
	Error string       `json:"error,omitempty"`
}

type FieldValidationResponse struct {
	RuleID int             `json:"rule_id"`
	Field  validator.Field `json:"field"`
	Error  string          `json:"error,omitempty"`
}

type OptionsResponse struct {
	Actions []domain.Option `json:"actions"`
	Data    []domain.Option `json:"data"`
}

type PreviewResponse struct {
	Payload json.RawMessage    `json:"payload"`
	Applied []scrubber.Applied `json:"applied"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *APIHandler) ListRulesHandler(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sendJSON(w, h.collection(), http.StatusOK)
}

func (h *APIHandler) AddRuleHandler(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.ready(w) {
		return
	}
	rule := h.session.Store().Add()
	h.session.Observe()

	h.logger.Info("Rule added", slog.Int("rule_id", rule.ID))
	h.sendJSON(w, h.collection(), http.StatusCreated)
}

func (h *APIHandler) UpdateRuleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ruleID(w, r)
	if !ok {
		return
	}

	var req RuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendErrorDetails(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	// Empty values are accepted here and reported as Field Required later.
	if req.Action != "" && !req.Action.IsKnown() {
		h.sendErrorDetails(w, "Unknown action", http.StatusBadRequest, "INVALID_FIELD", string(req.Action))
		return
	}
	if req.Data != "" && !req.Data.IsKnown() {
		h.sendErrorDetails(w, "Unknown data type", http.StatusBadRequest, "INVALID_FIELD", string(req.Data))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.ready(w) {
		return
	}
	rule := domain.Rule{ID: id, Action: req.Action, Data: req.Data, From: req.From}
	if !h.session.Store().Update(rule) {
		h.sendError(w, "Rule not found", http.StatusNotFound, "NOT_FOUND")
		return
	}
	h.session.Observe()

	h.sendJSON(w, h.collection(), http.StatusOK)
}

func (h *APIHandler) DeleteRuleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ruleID(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.ready(w) {
		return
	}
	if !h.session.Store().Delete(id) {
		h.sendError(w, "Rule not found", http.StatusNotFound, "NOT_FOUND")
		return
	}
	h.session.Observe()

	h.logger.Info("Rule deleted", slog.Int("rule_id", id))
	h.sendJSON(w, h.collection(), http.StatusOK)
}

// ValidateFieldHandler is the blur check. A required-field failure is a
// normal 200 response carrying the message.
func (h *APIHandler) ValidateFieldHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ruleID(w, r)
	if !ok {
		return
	}

	field, err := validator.ParseField(r.URL.Query().Get("field"))
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_FIELD")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.ready(w) {
		return
	}
	err = h.session.Store().ValidateField(id, field)
	switch {
	case errors.Is(err, editor.ErrRuleNotFound):
		h.sendError(w, "Rule not found", http.StatusNotFound, "NOT_FOUND")
		return
	case err != nil && !errors.Is(err, validator.ErrFieldRequired):
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_FIELD")
		return
	}
	h.session.Observe()

	resp := FieldValidationResponse{RuleID: id, Field: field}
	if err != nil {
		resp.Error = err.Error()
	}
	h.sendJSON(w, resp, http.StatusOK)
}

func (h *APIHandler) SaveRulesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.ready(w) {
		return
	}
	err := h.session.Save(ctx)
	switch {
	case err == nil:
		h.sendJSON(w, h.collection(), http.StatusOK)
	case errors.Is(err, editor.ErrCommitInvalid):
		h.sendJSON(w, h.collection(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error("Saving rules failed", slog.String("error", err.Error()))
		h.sendJSON(w, h.collection(), http.StatusBadGateway)
	}
}

func (h *APIHandler) CancelRulesHandler(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.ready(w) {
		return
	}
	h.session.Cancel()
	h.sendJSON(w, h.collection(), http.StatusOK)
}

// ReloadRulesHandler fetches the collection again and discards any edits.
// It is the way out of the loading state after a failed load.
func (h *APIHandler) ReloadRulesHandler(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.session.Start(r.Context()); err != nil {
		h.sendErrorDetails(w, "Failed to load rules", http.StatusServiceUnavailable, "LOAD_FAILED", err.Error())
		return
	}

	h.logger.Info("Rules reloaded")
	h.sendJSON(w, h.collection(), http.StatusOK)
}

func (h *APIHandler) OptionsHandler(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, OptionsResponse{
		Actions: domain.ActionOptions(),
		Data:    domain.DataOptions(),
	}, http.StatusOK)
}

// PreviewHandler runs the saved rules over the request body.
func (h *APIHandler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPreviewBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.sendErrorDetails(w, "Request body too large", http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
				fmt.Sprintf("limit is %d bytes", tooLarge.Limit))
			return
		}
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	h.mu.Lock()
	saved := h.session.Store().Saved()
	h.mu.Unlock()

	s, err := scrubber.New(saved, h.signer, h.logger)
	if err != nil {
		h.sendErrorDetails(w, "Saved rules have an invalid selector", http.StatusUnprocessableEntity, "INVALID_SELECTOR", err.Error())
		return
	}

	out, applied, err := s.ScrubJSON(body)
	if err != nil {
		h.sendErrorDetails(w, "Payload is not valid JSON", http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}
	if applied == nil {
		applied = []scrubber.Applied{}
	}

	h.sendJSON(w, PreviewResponse{Payload: out, Applied: applied}, http.StatusOK)
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	state := h.session.Store().State()
	h.mu.Unlock()

	status := http.StatusOK
	health := "healthy"
	if state == editor.StateLoading {
		status = http.StatusServiceUnavailable
		health = "loading"
	}

	response := map[string]interface{}{
		"status":    health,
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}
	h.sendJSON(w, response, status)
}

// collection must be called with mu held.
func (h *APIHandler) collection() CollectionResponse {
	store := h.session.Store()
	errs := store.Errors()

	rules := store.Working()
	views := make([]RuleView, 0, len(rules))
	for _, rule := range rules {
		views = append(views, RuleView{Rule: rule, Errors: errs[rule.ID]})
	}

	return CollectionResponse{
		Rules: views,
		State: store.State(),
		Dirty: store.IsDirty(),
		Error: store.AggregateError(),
	}
}

// ready rejects edits until the collection has loaded. It must be called
// with mu held.
func (h *APIHandler) ready(w http.ResponseWriter) bool {
	if h.session.Store().State() == editor.StateLoading {
		h.sendError(w, "Rules are still loading", http.StatusServiceUnavailable, "LOADING")
		return false
	}
	return true
}

func (h *APIHandler) ruleID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		h.sendError(w, "Rule ID must be a positive integer", http.StatusBadRequest, "INVALID_ID")
		return 0, false
	}
	return id, true
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	h.sendErrorDetails(w, message, statusCode, code, "")
}

func (h *APIHandler) sendErrorDetails(w http.ResponseWriter, message string, statusCode int, code, details string) {
	errorResponse := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/rules", h.ListRulesHandler)
	mux.HandleFunc("POST /api/v1/rules", h.AddRuleHandler)
	mux.HandleFunc("GET /api/v1/rules/options", h.OptionsHandler)
	mux.HandleFunc("POST /api/v1/rules/save", h.SaveRulesHandler)
	mux.HandleFunc("POST /api/v1/rules/cancel", h.CancelRulesHandler)
	mux.HandleFunc("POST /api/v1/rules/reload", h.ReloadRulesHandler)
	mux.HandleFunc("PUT /api/v1/rules/{id}", h.UpdateRuleHandler)
	mux.HandleFunc("DELETE /api/v1/rules/{id}", h.DeleteRuleHandler)
	mux.HandleFunc("POST /api/v1/rules/{id}/validate", h.ValidateFieldHandler)
	mux.HandleFunc("POST /api/v1/scrub/preview", h.PreviewHandler)
	mux.HandleFunc("GET /api/health", h.HealthCheckHandler)
}
