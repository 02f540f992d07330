package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gosplit/domain/experiment"
	"gosplit/domain/targeting"
	"gosplit/internal/errors"
)

type assignRequest struct {
	ExperimentID string          `json:"experiment_id"`
	UserID       string          `json:"user_id,omitempty"`
	SessionID    string          `json:"session_id"`
	Context      *contextPayload `json:"context,omitempty"`
}

// contextPayload is the wire form of targeting.Context. Custom attributes
// arrive as plain JSON scalars and are coerced into typed values; nested
// objects and arrays are rejected.
type contextPayload struct {
	Segments   []string       `json:"segments,omitempty"`
	DeviceType string         `json:"device_type,omitempty"`
	Browser    string         `json:"browser,omitempty"`
	Country    string         `json:"country,omitempty"`
	Language   string         `json:"language,omitempty"`
	URL        string         `json:"url,omitempty"`
	IsNewUser  bool           `json:"is_new_user,omitempty"`
	IsLoggedIn bool           `json:"is_logged_in,omitempty"`
	Custom     map[string]any `json:"custom,omitempty"`
}

type assignResponse struct {
	Assigned bool                `json:"assigned"`
	Variant  *experiment.Variant `json:"variant,omitempty"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ExperimentID == "" || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "experiment_id and session_id are required")
		return
	}

	tctx, err := buildContext(req.Context, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	visitor := experiment.Visitor{UserID: req.UserID, SessionID: req.SessionID}
	variant, err := a.assignments.Assign(r.Context(), req.ExperimentID, visitor, tctx)
	if err != nil {
		a.writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, assignResponse{Assigned: variant != nil, Variant: variant})
}

func (a *App) handleClearAssignments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"user_id,omitempty"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	visitor := experiment.Visitor{UserID: req.UserID, SessionID: req.SessionID}
	if err := a.assignments.ClearAssignments(r.Context(), visitor); err != nil {
		a.writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type trackRequest struct {
	ExperimentID string            `json:"experiment_id"`
	VariantID    string            `json:"variant_id"`
	UserID       string            `json:"user_id,omitempty"`
	SessionID    string            `json:"session_id"`
	Value        float64           `json:"value,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

func (a *App) handleTrackExposure(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTrackRequest(w, r)
	if !ok {
		return
	}
	visitor := experiment.Visitor{UserID: req.UserID, SessionID: req.SessionID}
	if err := a.tracking.TrackExposure(r.Context(), req.ExperimentID, req.VariantID, visitor); err != nil {
		a.writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *App) handleTrackConversion(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTrackRequest(w, r)
	if !ok {
		return
	}
	visitor := experiment.Visitor{UserID: req.UserID, SessionID: req.SessionID}
	if err := a.tracking.TrackConversion(r.Context(), req.ExperimentID, req.VariantID, visitor, req.Value, req.Metadata); err != nil {
		a.writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func decodeTrackRequest(w http.ResponseWriter, r *http.Request) (*trackRequest, bool) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return &req, true
}

func (a *App) handleSaveExperiment(w http.ResponseWriter, r *http.Request) {
	var exp experiment.Experiment
	if err := json.NewDecoder(r.Body).Decode(&exp); err != nil {
		writeError(w, http.StatusBadRequest, "invalid experiment definition")
		return
	}
	if exp.Status == "" {
		exp.Status = experiment.StatusDraft
	}
	if err := a.repo.SaveExperiment(r.Context(), &exp); err != nil {
		a.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": exp.ID})
}

func (a *App) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Status experiment.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "a valid status is required")
		return
	}
	if err := a.repo.UpdateStatus(r.Context(), id, req.Status); err != nil {
		a.writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	results, err := a.results.Results(r.Context(), id)
	if err != nil {
		a.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (a *App) handleMetricSummaries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	eventName := r.URL.Query().Get("event")
	if eventName == "" {
		eventName = experiment.EventConversion
	}
	summaries, err := a.results.MetricSummaries(r.Context(), id, eventName)
	if err != nil {
		a.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (a *App) handleSampleSize(w http.ResponseWriter, r *http.Request) {
	baseline, err1 := strconv.ParseFloat(r.URL.Query().Get("baseline"), 64)
	mde, err2 := strconv.ParseFloat(r.URL.Query().Get("mde"), 64)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "baseline and mde query parameters are required")
		return
	}
	confidence := queryInt(r, "confidence", 95)
	power := queryInt(r, "power", 80)

	n, err := a.results.RequiredSampleSize(baseline, mde, confidence, power)
	if err != nil {
		a.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sample_size_per_variant": n})
}

// buildContext converts the wire payload into a targeting context, deriving
// the device type from the User-Agent header when the caller omits it.
func buildContext(p *contextPayload, r *http.Request) (*targeting.Context, error) {
	if p == nil {
		p = &contextPayload{}
	}

	tctx := &targeting.Context{
		Segments:   p.Segments,
		DeviceType: p.DeviceType,
		Browser:    p.Browser,
		Country:    p.Country,
		Language:   p.Language,
		URL:        p.URL,
		IsNewUser:  p.IsNewUser,
		IsLoggedIn: p.IsLoggedIn,
	}
	if tctx.DeviceType == "" {
		tctx.DeviceType = DetectDevice(r.UserAgent())
	}
	if tctx.Browser == "" {
		tctx.Browser = r.UserAgent()
	}

	if len(p.Custom) > 0 {
		tctx.Custom = make(map[string]targeting.Value, len(p.Custom))
		for k, v := range p.Custom {
			switch val := v.(type) {
			case string:
				tctx.Custom[k] = targeting.String(val)
			case float64:
				tctx.Custom[k] = targeting.Number(val)
			case bool:
				tctx.Custom[k] = targeting.Boolean(val)
			default:
				return nil, fmt.Errorf("custom attribute %q must be a string, number, or boolean", k)
			}
		}
	}
	return tctx, nil
}

func queryInt(r *http.Request, key string, def int) int {
	if s := r.URL.Query().Get(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func (a *App) writeAppError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeExperimentNotFound, errors.CodeVariantNotFound:
		status = http.StatusNotFound
	case errors.CodeValidationError, errors.CodeInvalidInput, errors.CodeInvalidTransition:
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		a.log.Error("request failed: %v", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
