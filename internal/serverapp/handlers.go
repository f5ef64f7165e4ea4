package serverapp

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
	"github.com/Eoha39/clicker-webapp/internal/game"
	"github.com/Eoha39/clicker-webapp/internal/httpmw"
	"github.com/Eoha39/clicker-webapp/internal/session"
	"github.com/Eoha39/clicker-webapp/internal/telemetry"
	"github.com/Eoha39/clicker-webapp/ui/page"

	"github.com/a-h/templ"
)

const maxSnapshotBytes = 1 << 20

type gameAPI struct {
	sessions  *session.Manager
	telemetry *telemetry.MemoryRepository
	logger    *log.Logger
}

type clickResponse struct {
	Click game.ClickResult `json:"click"`
	View  game.View        `json:"view"`
}

type buyRequest struct {
	Upgrade catalog.UpgradeID `json:"upgrade"`
}

type buyResponse struct {
	Purchase game.PurchaseResult `json:"purchase"`
	View     game.View           `json:"view"`
}

type errorResponse struct {
	Error    string               `json:"error"`
	Reason   string               `json:"reason"`
	Purchase *game.PurchaseResult `json:"purchase,omitempty"`
}

func (a *gameAPI) sessionFor(r *http.Request) (*session.Session, error) {
	return a.sessions.Get(r.Context(), PlayerIDFromRequest(r))
}

// session resolves the caller's session or writes a 503.
func (a *gameAPI) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := a.sessionFor(r)
	if err != nil {
		httpmw.Log(a.logger, "error", "session_unavailable", httpmw.Fields{
			"request_id": httpmw.RequestIDFromContext(r.Context()),
			"player_id":  PlayerIDFromRequest(r),
			"error":      err.Error(),
		})
		writeError(w, http.StatusServiceUnavailable, "session unavailable", "store_unavailable")
		return nil, false
	}
	return s, true
}

func (a *gameAPI) State(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (a *gameAPI) Click(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	res := s.Click()
	writeJSON(w, http.StatusOK, clickResponse{Click: res, View: s.View()})
}

func (a *gameAPI) Buy(w http.ResponseWriter, r *http.Request) {
	var in buyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body", "bad_request")
		return
	}
	if strings.TrimSpace(string(in.Upgrade)) == "" {
		writeError(w, http.StatusBadRequest, "upgrade is required", "bad_request")
		return
	}

	s, ok := a.session(w, r)
	if !ok {
		return
	}

	res := s.Buy(r.Context(), in.Upgrade)
	switch res.Outcome {
	case game.PurchaseSucceeded:
		writeJSON(w, http.StatusOK, buyResponse{Purchase: res, View: s.View()})
	case game.PurchaseInsufficientFunds:
		writeJSON(w, http.StatusPaymentRequired, errorResponse{
			Error:    res.Err().Error(),
			Reason:   string(res.Outcome),
			Purchase: &res,
		})
	default:
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:    res.Err().Error(),
			Reason:   string(res.Outcome),
			Purchase: &res,
		})
	}
}

func (a *gameAPI) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	// a failed delete is logged by the session; the in-memory reset stands
	_ = s.Reset(r.Context())
	writeJSON(w, http.StatusOK, s.View())
}

func (a *gameAPI) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	blob, err := s.Export()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed", "internal")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="gigaCodeClicker.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

func (a *gameAPI) Import(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body", "bad_request")
		return
	}
	if len(body) > maxSnapshotBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "snapshot too large", "too_large")
		return
	}

	s, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := s.Import(r.Context(), body); err != nil {
		if errors.Is(err, game.ErrCorruptSnapshot) {
			writeError(w, http.StatusUnprocessableEntity, err.Error(), "corrupt_snapshot")
			return
		}
		writeError(w, http.StatusInternalServerError, "import failed", "internal")
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (a *gameAPI) Catalog(w http.ResponseWriter, r *http.Request) {
	cat := a.sessions.Catalog()
	writeJSON(w, http.StatusOK, map[string]any{
		"upgrades":     cat.Upgrades(),
		"achievements": cat.Achievements(),
	})
}

func (a *gameAPI) TelemetryStats(w http.ResponseWriter, r *http.Request) {
	since, err := parseSince(r.URL.Query().Get("since"), time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "bad_request")
		return
	}
	events, err := a.telemetry.GetEvents(since, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "telemetry unavailable", "internal")
		return
	}
	stats, err := telemetry.CalculateStats(events, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "telemetry unavailable", "internal")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *gameAPI) Page(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	templ.Handler(page.HomePage(s.View())).ServeHTTP(w, r)
}

// parseSince accepts an RFC3339 time or a duration back from now. Empty
// means the last 24 hours.
func parseSince(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.Add(-24 * time.Hour), nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("since must be a duration like 24h or an RFC3339 time")
	}
	return t, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg, reason string) {
	writeJSON(w, code, errorResponse{Error: msg, Reason: reason})
}
