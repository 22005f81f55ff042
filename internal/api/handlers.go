package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"absence-assistant/internal/apperr"
	"absence-assistant/internal/calendar"
	"absence-assistant/internal/tools"
)

// Handler serves the absence API over HTTP.
type Handler struct {
	svc      tools.Service
	registry *tools.Registry
	appName  string
	started  time.Time
	logger   *logrus.Logger
}

func NewHandler(svc tools.Service, registry *tools.Registry, appName string, logger *logrus.Logger) *Handler {
	return &Handler{
		svc:      svc,
		registry: registry,
		appName:  appName,
		started:  time.Now(),
		logger:   logger,
	}
}

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   h.appName,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	})
}

// AgentStatus lists the tools an agent may call.
// GET /api/agent/status
func (h *Handler) AgentStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AgentStatusResponse{
		Status:       "initialized",
		Tools:        h.registry.Names(),
		Descriptions: h.registry.Describe(),
	})
}

// InvokeTool runs one tool with a JSON argument object.
// POST /api/tools/{name}
func (h *Handler) InvokeTool(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res := h.registry.InvokeJSON(r.Context(), chi.URLParam(r, "name"), raw)
	if res.OK() {
		writeJSON(w, http.StatusOK, res)
		return
	}
	writeJSON(w, statusForKind(res.Kind), res)
}

// =============================================================================
// ABSENCES
// =============================================================================

// FillAbsence records an absence for a day.
// POST /api/users/{userID}/absences
func (h *Handler) FillAbsence(w http.ResponseWriter, r *http.Request) {
	var req FillAbsenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	absence, err := h.svc.FillAbsence(r.Context(), chi.URLParam(r, "userID"), req.Date, req.Reason)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, absence)
}

// ListAbsences returns absences within ?start=&end=.
// GET /api/users/{userID}/absences
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	dr, err := rangeFromQuery(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	absences, err := h.svc.GetAbsences(r.Context(), userID, dr)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AbsenceListResponse{
		UserID:    userID,
		StartDate: calendar.FormatDate(dr.Start()),
		EndDate:   calendar.FormatDate(dr.End()),
		Absences:  absences,
	})
}

// CountAbsences summarizes absences within ?start=&end=.
// GET /api/users/{userID}/absences/count
func (h *Handler) CountAbsences(w http.ResponseWriter, r *http.Request) {
	dr, err := rangeFromQuery(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	count, err := h.svc.CountAbsences(r.Context(), chi.URLParam(r, "userID"), dr)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, count)
}

// IsAbsent reports whether the user is absent on a date.
// GET /api/users/{userID}/absences/{date}
func (h *Handler) IsAbsent(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.IsAbsent(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "date"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// =============================================================================
// WEEKS
// =============================================================================

// GetWeek lists the absences of an ISO week.
// GET /api/users/{userID}/weeks/{year}/{week}
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	year, week, err := weekFromPath(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	result, err := h.svc.GetWeekAbsences(r.Context(), chi.URLParam(r, "userID"), year, week)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SubmitWeek submits an ISO week; ?confirmed=true acknowledges its absences.
// POST /api/users/{userID}/weeks/{year}/{week}/submit
func (h *Handler) SubmitWeek(w http.ResponseWriter, r *http.Request) {
	year, week, err := weekFromPath(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	confirmed := false
	if v := r.URL.Query().Get("confirmed"); v != "" {
		confirmed, err = strconv.ParseBool(v)
		if err != nil {
			h.writeServiceError(w, r, apperr.Validation("confirmed", "must be true or false"))
			return
		}
	}

	result, err := h.svc.SubmitWeek(r.Context(), chi.URLParam(r, "userID"), year, week, confirmed)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// HELPERS
// =============================================================================

func rangeFromQuery(r *http.Request) (calendar.DateRange, error) {
	q := r.URL.Query()
	return calendar.ParseDateRange(q.Get("start"), q.Get("end"))
}

func weekFromPath(r *http.Request) (int, int, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, 0, apperr.Validation("year", "must be a number")
	}
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		return 0, 0, apperr.Validation("week_no", "must be a number")
	}
	return year, week, nil
}

func statusForKind(kind string) int {
	switch kind {
	case "validation":
		return http.StatusBadRequest
	case "service":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.Kind(err)
	resp := ErrorResponse{Error: err.Error(), Code: kind}

	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	} else {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"path": r.URL.Path,
			"kind": kind,
		}).Error("Request failed")
	}
	writeJSON(w, statusForKind(kind), resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: "validation"}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
