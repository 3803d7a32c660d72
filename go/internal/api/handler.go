package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/reckman-cloud/employee-admin-app/go/internal/directory"
	"github.com/reckman-cloud/employee-admin-app/go/internal/i18n"
	"github.com/reckman-cloud/employee-admin-app/go/internal/models"
	"github.com/reckman-cloud/employee-admin-app/go/internal/queue"
	"github.com/reckman-cloud/employee-admin-app/go/internal/submission"
)

// maxBodyBytes bounds request bodies; a bulk submission carries many drafts.
const maxBodyBytes = 8 << 20

// ManagerSource serves the cached manager list.
type ManagerSource interface {
	GetManagers(ctx context.Context) ([]models.Manager, error)
}

// GroupInspector reports on the managers group.
type GroupInspector interface {
	CheckGroup(ctx context.Context) (*directory.GroupReport, error)
}

// Submitter enqueues drafts and termination requests.
type Submitter interface {
	Submit(ctx context.Context, entries []models.Entry) submission.Result
	Offboard(ctx context.Context, req submission.OffboardRequest) (submission.OffboardResult, error)
}

// Queue is the part of the queue gateway the handlers need.
type Queue interface {
	Configured() bool
	EnsureQueue(ctx context.Context) error
	Health(ctx context.Context) queue.Snapshot
}

// Handler serves the /api surface.
type Handler struct {
	managers   ManagerSource
	groups     GroupInspector
	submitter  Submitter
	queue      Queue
	catalog    *Catalog
	translator *i18n.Translator
	gate       *Gate
}

type Deps struct {
	Managers   ManagerSource
	Groups     GroupInspector
	Submitter  Submitter
	Queue      Queue
	Catalog    *Catalog
	Translator *i18n.Translator
	Gate       *Gate
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		managers:   d.Managers,
		groups:     d.Groups,
		submitter:  d.Submitter,
		queue:      d.Queue,
		catalog:    d.Catalog,
		translator: d.Translator,
		gate:       d.Gate,
	}
}

// RegisterRoutes mounts every endpoint behind the admin gate.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /api/lists", h.gate.RequireAdmin(http.HandlerFunc(h.Lists)))
	mux.Handle("GET /api/groups-check", h.gate.RequireAdmin(http.HandlerFunc(h.GroupsCheck)))
	mux.Handle("POST /api/submit-all", h.gate.RequireAdmin(http.HandlerFunc(h.SubmitAll)))
	mux.Handle("POST /api/offboard", h.gate.RequireAdmin(http.HandlerFunc(h.Offboard)))
	mux.Handle("GET /api/health", h.gate.RequireHealthAccess(http.HandlerFunc(h.Health)))
}

type listsResponse struct {
	OK            bool             `json:"ok"`
	Departments   json.RawMessage  `json:"departments"`
	BusinessUnits json.RawMessage  `json:"businessUnits"`
	Managers      []models.Manager `json:"managers"`
}

// Lists returns the static catalogs plus managers. Directory trouble degrades to an empty
// manager list.
func (h *Handler) Lists(w http.ResponseWriter, r *http.Request) {
	deps, err := h.catalog.Departments()
	if err != nil {
		log.Error().Err(err).Msg("failed to load departments")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "Failed to load lists"})
		return
	}
	bus, err := h.catalog.BusinessUnits()
	if err != nil {
		log.Error().Err(err).Msg("failed to load business units")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "Failed to load lists"})
		return
	}

	managers, err := h.managers.GetManagers(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("manager lookup failed, serving empty list")
		managers = nil
	}
	if managers == nil {
		managers = []models.Manager{}
	}

	writeJSON(w, http.StatusOK, listsResponse{
		OK:            true,
		Departments:   deps,
		BusinessUnits: bus,
		Managers:      managers,
	})
}

func (h *Handler) GroupsCheck(w http.ResponseWriter, r *http.Request) {
	report, err := h.groups.CheckGroup(r.Context())
	if errors.Is(err, directory.ErrGroupNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "Group not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("group check failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type submitAllRequest struct {
	Entries []models.Entry `json:"entries"`
}

type submitAllResponse struct {
	submission.Result
	Message string `json:"message"`
}

func (h *Handler) SubmitAll(w http.ResponseWriter, r *http.Request) {
	var req submitAllRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Invalid JSON body"})
		return
	}
	if len(req.Entries) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "No entries"})
		return
	}

	if err := h.queue.EnsureQueue(r.Context()); err != nil {
		writeError(w, err, "Submit failed")
		return
	}

	res := h.submitter.Submit(r.Context(), req.Entries)
	ctx := i18n.WithLocale(r.Context(), h.translator.LocaleFromRequest(r))
	writeJSON(w, http.StatusOK, submitAllResponse{
		Result:  res,
		Message: h.translator.SubmitSummary(ctx, len(res.Accepted), len(res.Failed)),
	})
}

type offboardRequest struct {
	Employee    string  `json:"employee"`
	ManagerID   string  `json:"managerId"`
	ManagerUPN  string  `json:"managerUpn"`
	ManagerName string  `json:"managerName"`
	Notes       *string `json:"notes"`
}

func (h *Handler) Offboard(w http.ResponseWriter, r *http.Request) {
	var body offboardRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Invalid JSON body"})
		return
	}

	req := submission.OffboardRequest{
		Employee:    trim(body.Employee),
		ManagerID:   optional(body.ManagerID),
		ManagerUPN:  optional(body.ManagerUPN),
		ManagerName: optional(body.ManagerName),
	}
	if body.Notes != nil {
		req.Notes = optional(*body.Notes)
	}
	if name := PrincipalFromContext(r.Context()).Name(); name != "" {
		req.RequestedBy = &name
	}

	if req.Employee == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Missing employee"})
		return
	}
	if !h.queue.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "Queue not configured"})
		return
	}
	if err := h.queue.EnsureQueue(r.Context()); err != nil {
		writeError(w, err, "Queue submit failed")
		return
	}

	res, err := h.submitter.Offboard(r.Context(), req)
	if err != nil {
		writeError(w, err, "Queue submit failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Health reports queue health: 200 when usable, 503 otherwise.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.queue.Health(r.Context())
	status := http.StatusOK
	if !snap.OK {
		status = http.StatusServiceUnavailable
		log.Warn().Str("reason", deref(snap.Reason)).Msg("queue health check failed")
	}
	writeJSON(w, status, snap)
}
