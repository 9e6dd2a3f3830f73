package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/keepup/internal/configresolver"
	"github.com/rezkam/keepup/internal/domain"
	"github.com/rezkam/keepup/internal/materialize"
	"github.com/rezkam/keepup/internal/progress"
	"github.com/rezkam/keepup/internal/ptr"
	"github.com/rezkam/keepup/internal/store"
)

// itemRequest is the wire shape for item create/update bodies. Schedule is
// passed through as an opaque JSON object matching store/blob's envelope
// shape, since both sides need to agree on the same tagged-union encoding.
type itemRequest struct {
	Type     string          `json:"type"`
	Active   *bool           `json:"active,omitempty"`
	Category *string         `json:"category,omitempty"`
	Name     string          `json:"name"`
	Desc     *string         `json:"desc,omitempty"`
	Schedule json.RawMessage `json:"schedule"`
}

type itemResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Active    bool            `json:"active"`
	Category  *string         `json:"category,omitempty"`
	Name      string          `json:"name"`
	Desc      *string         `json:"desc,omitempty"`
	Schedule  json.RawMessage `json:"schedule"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toItemResponse(it domain.Item) (itemResponse, error) {
	schedBlob, err := scheduleJSON(it.Schedule)
	if err != nil {
		return itemResponse{}, err
	}
	return itemResponse{
		ID:        it.ID,
		Type:      string(it.Type),
		Active:    it.Active,
		Category:  it.Category,
		Name:      it.Name,
		Desc:      it.Desc,
		Schedule:  schedBlob,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}, nil
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	itemType, err := domain.NewItemType(req.Type)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sched, err := scheduleFromJSON(req.Schedule)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	it := domain.Item{
		Type:     itemType,
		Active:   ptr.Deref(req.Active, true),
		Category: req.Category,
		Name:     req.Name,
		Desc:     req.Desc,
		Schedule: sched,
	}
	if err := it.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	token := domain.NewIdToken()
	result, err := s.facade.Write(r.Context(), []store.Update{store.CreateItem(token, it)})
	if err != nil {
		writeError(w, r, err)
		return
	}
	it.ID = result[token]

	resp, err := toItemResponse(it)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func parseLimit(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	params := store.FindItemsParams{
		Sort:  store.SortDescending,
		Limit: parseLimit(r, s.defaultLimit, s.maxLimit),
	}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "active must be a boolean"})
			return
		}
		params.Active = &active
	}

	items, err := s.facade.FindItems(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]itemResponse, 0, len(items))
	for _, it := range items {
		ir, err := toItemResponse(it)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp = append(resp, ir)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemID")
	items, err := s.facade.GetItems(r.Context(), []string{id})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(items) == 0 {
		writeError(w, r, domain.NewError(domain.KindNotFound, "item not found", nil))
		return
	}
	resp, err := toItemResponse(items[0])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type itemUpdateRequest struct {
	Active   *bool            `json:"active"`
	Category **string         `json:"category"`
	Name     *string          `json:"name"`
	Desc     **string         `json:"desc"`
	Schedule *json.RawMessage `json:"schedule"`
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemID")
	var req itemUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	u := domain.ItemUpdate{ID: id}
	if req.Active != nil {
		u.UpdateMask = append(u.UpdateMask, "active")
		u.Active = req.Active
	}
	if req.Category != nil {
		u.UpdateMask = append(u.UpdateMask, "category")
		u.Category = req.Category
	}
	if req.Name != nil {
		u.UpdateMask = append(u.UpdateMask, "name")
		u.Name = req.Name
	}
	if req.Desc != nil {
		u.UpdateMask = append(u.UpdateMask, "desc")
		u.Desc = req.Desc
	}
	if req.Schedule != nil {
		sched, err := scheduleFromJSON(*req.Schedule)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		u.UpdateMask = append(u.UpdateMask, "schedule")
		u.Schedule = &sched
	}
	if err := u.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if _, err := s.facade.Write(r.Context(), []store.Update{store.UpdateItemOp(u)}); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemID")
	if _, err := s.facade.Write(r.Context(), []store.Update{store.DeleteItem(id)}); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type occurrenceResponse struct {
	ID                     string    `json:"id"`
	ItemID                 string    `json:"item_id"`
	Active                 bool      `json:"active"`
	Start                  time.Time `json:"start"`
	End                    time.Time `json:"end"`
	TaskCompletionProgress int       `json:"task_completion_progress"`
}

func toOccResponse(occ domain.Occurrence) occurrenceResponse {
	return occurrenceResponse{
		ID:                     occ.ID,
		ItemID:                 occ.ItemID,
		Active:                 occ.Active,
		Start:                  occ.Start,
		End:                    occ.End,
		TaskCompletionProgress: occ.TaskCompletionProgress,
	}
}

func (s *Server) listOccurrences(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemID")
	params := store.FindOccsParams{Sort: store.SortAscending}
	if raw := r.URL.Query().Get("start"); raw != "" {
		start, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start must be epoch seconds"})
			return
		}
		params.Start = &start
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		end, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end must be epoch seconds"})
			return
		}
		params.End = &end
	}

	byItem, err := s.facade.FindOccs(r.Context(), []string{id}, params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	occs := byItem[id]
	resp := make([]occurrenceResponse, 0, len(occs))
	for _, occ := range occs {
		resp = append(resp, toOccResponse(occ))
	}
	writeJSON(w, http.StatusOK, resp)
}

type currentOccurrenceResponse struct {
	Item       itemResponse       `json:"item"`
	Occurrence occurrenceResponse `json:"occurrence"`
	Progress   *domain.TaskProgress `json:"progress,omitempty"`
	InAlert    bool               `json:"in_alert"`
}

// currentOccurrences runs OccMaterialiser over every active item and returns
// each item's current occurrence, its resolved progress (for task items),
// and whether it is inside its alert window.
func (s *Server) currentOccurrences(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	pairs, err := materialize.CurrentItemsAndOccurrences(r.Context(), s.facade, now)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]currentOccurrenceResponse, 0, len(pairs))
	for _, p := range pairs {
		itResp, err := toItemResponse(p.Item)
		if err != nil {
			writeError(w, r, err)
			return
		}
		cfg, err := resolveItemConfig(r, s, p.Item)
		if err != nil {
			writeError(w, r, err)
			return
		}
		entry := currentOccurrenceResponse{
			Item:       itResp,
			Occurrence: toOccResponse(p.Occ),
			InAlert:    alertStatus(s, p.Occ, cfg),
		}
		if p.Item.Type != domain.ItemTypeEvent {
			prog, err := progress.ResolveOccProgress(r.Context(), s.facade, p.Item.ID, p.Occ, cfg)
			if err != nil {
				writeError(w, r, err)
				return
			}
			entry.Progress = &prog
		}
		resp = append(resp, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

type occUpdateRequest struct {
	Active                 *bool  `json:"active"`
	Start                  *int64 `json:"start"`
	End                    *int64 `json:"end"`
	TaskCompletionProgress *int   `json:"task_completion_progress"`
}

func (s *Server) updateOccurrence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "occID")
	var req occUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	u := domain.OccUpdate{ID: id}
	if req.Active != nil {
		u.UpdateMask = append(u.UpdateMask, "active")
		u.Active = req.Active
	}
	if req.Start != nil {
		u.UpdateMask = append(u.UpdateMask, "start")
		u.Start = req.Start
	}
	if req.End != nil {
		u.UpdateMask = append(u.UpdateMask, "end")
		u.End = req.End
	}
	if req.TaskCompletionProgress != nil {
		u.UpdateMask = append(u.UpdateMask, "task_completion_progress")
		u.TaskCompletionProgress = req.TaskCompletionProgress
	}
	if err := u.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if _, err := s.facade.Write(r.Context(), []store.Update{store.UpdateOccOp(u)}); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) occurrenceAlertStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "occID")
	occs, err := s.facade.GetOccs(r.Context(), []string{id})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(occs) == 0 {
		writeError(w, r, domain.NewError(domain.KindNotFound, "occurrence not found", nil))
		return
	}
	occ := occs[0]
	items, err := s.facade.GetItems(r.Context(), []string{occ.ItemID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(items) == 0 {
		writeError(w, r, domain.NewError(domain.KindNotFound, "item not found", nil))
		return
	}
	cfg, _, err := configresolver.OccConfig(r.Context(), s.facade, items[0], occ)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"in_alert": alertStatus(s, occ, cfg)})
}

type configRequest struct {
	ScopeKind    string  `json:"scope_kind"`
	ScopeKey     string  `json:"scope_key,omitempty"`
	Active       *bool   `json:"active,omitempty"`
	OccAlertSecs *int64  `json:"occ_alert_seconds,omitempty"`
	Total        *int    `json:"total,omitempty"`
	Unit         *string `json:"unit,omitempty"`
	ExcessPast   *int64  `json:"excess_past_seconds,omitempty"`
	ExcessFuture *int64  `json:"excess_future_seconds,omitempty"`
}

func scopeFromRequest(kind, key string) (domain.ConfigScope, error) {
	switch kind {
	case "all":
		return domain.AllScope(), nil
	case "type":
		t, err := domain.NewItemType(key)
		if err != nil {
			return domain.ConfigScope{}, err
		}
		return domain.TypeScope(t), nil
	case "category":
		return domain.CategoryScope(key), nil
	case "item":
		return domain.ItemScope(key), nil
	case "occ":
		return domain.OccScope(key), nil
	default:
		return domain.ConfigScope{}, domain.NewError(domain.KindValidation, "unknown scope kind "+kind, nil)
	}
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromRequest(r.URL.Query().Get("scope_kind"), r.URL.Query().Get("scope_key"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	configs, err := s.facade.GetConfigs(r.Context(), []domain.ConfigScope{scope})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(configs) == 0 {
		writeJSON(w, http.StatusOK, domain.Config{Scope: scope})
		return
	}
	writeJSON(w, http.StatusOK, configs[0])
}

func (s *Server) setConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}
	scope, err := scopeFromRequest(req.ScopeKind, req.ScopeKey)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	cfg := domain.Config{Scope: scope, Active: req.Active}
	if req.OccAlertSecs != nil {
		cfg.OccAlert = ptr.To(time.Duration(*req.OccAlertSecs) * time.Second)
	}
	cfg.TaskCompletion.Total = req.Total
	cfg.TaskCompletion.Unit = req.Unit
	if req.ExcessPast != nil {
		cfg.TaskCompletion.ExcessPast = ptr.To(time.Duration(*req.ExcessPast) * time.Second)
	}
	if req.ExcessFuture != nil {
		cfg.TaskCompletion.ExcessFuture = ptr.To(time.Duration(*req.ExcessFuture) * time.Second)
	}

	if _, err := s.facade.Write(r.Context(), []store.Update{store.SetConfig(cfg)}); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteConfig(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromRequest(r.URL.Query().Get("scope_kind"), r.URL.Query().Get("scope_key"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if _, err := s.facade.Write(r.Context(), []store.Update{store.DeleteConfig(scope)}); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
