package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"mercator-hq/autopublish/pkg/autopublish"
	"mercator-hq/autopublish/pkg/content"
	"mercator-hq/autopublish/pkg/history"
	"mercator-hq/autopublish/pkg/workflow"
)

const (
	defaultRunLimit = 20
	maxItemBody     = 1 << 20
)

type handlers struct {
	deps   Deps
	logger *slog.Logger
}

// ItemList is the body of GET /v1/items.
type ItemList struct {
	Items []*content.Item `json:"items"`
	Count int             `json:"count"`
}

// RunList is the body of GET /v1/runs.
type RunList struct {
	Runs  []*history.Record `json:"runs"`
	Count int               `json:"count"`
}

// ItemView is an item with the transitions its state offers.
type ItemView struct {
	*content.Item
	Transitions []string `json:"transitions"`
}

func (h *handlers) listItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := &content.Query{PathPrefix: q.Get("path")}
	if v := q.Get("state"); v != "" {
		query.ReviewStates = []string{v}
	}
	if v := q.Get("type"); v != "" {
		query.PortalTypes = []string{v}
	}
	if v := q.Get("autopublish"); v != "" {
		only, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, "autopublish must be a boolean", "autopublish")
			return
		}
		query.AutopublishOnly = only
	}

	ctx := r.Context()
	brains, err := h.deps.Catalog.Search(ctx, query)
	if err != nil {
		h.serverError(w, r, "search failed", err)
		return
	}

	items := make([]*content.Item, 0, len(brains))
	for _, b := range brains {
		item, err := h.deps.Catalog.Get(ctx, b.ID)
		if errors.Is(err, content.ErrNotFound) {
			continue
		}
		if err != nil {
			h.serverError(w, r, "load failed", err)
			return
		}
		items = append(items, item)
	}

	writeJSON(w, http.StatusOK, ItemList{Items: items, Count: len(items)})
}

func (h *handlers) getItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.view(item))
}

func (h *handlers) putItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var item content.Item
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxItemBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, "invalid item body: "+err.Error(), "")
		return
	}

	if item.ID == "" {
		item.ID = id
	}
	if item.ID != id {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, "item id does not match the URL", "id")
		return
	}
	if item.ReviewState == "" && h.deps.Engine != nil {
		item.ReviewState = h.deps.Engine.Definition().InitialState
	}

	if err := h.deps.Catalog.Put(r.Context(), &item); err != nil {
		var verr *content.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, verr.Error(), verr.Field)
			return
		}
		h.serverError(w, r, "save failed", err)
		return
	}

	stored, err := h.deps.Catalog.Get(r.Context(), id)
	if err != nil {
		h.serverError(w, r, "load failed", err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(stored))
}

func (h *handlers) transition(w http.ResponseWriter, r *http.Request) {
	if h.deps.Engine == nil {
		writeError(w, http.StatusServiceUnavailable, ErrorTypeUnavailable, "workflow engine not configured", "")
		return
	}

	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}

	transition := r.PathValue("transition")
	if err := h.deps.Engine.DoActionFor(r.Context(), item, transition); err != nil {
		if errors.Is(err, workflow.ErrTransitionNotAllowed) {
			writeError(w, http.StatusConflict, ErrorTypeConflict, err.Error(), "transition")
			return
		}
		h.serverError(w, r, "transition failed", err)
		return
	}

	writeJSON(w, http.StatusOK, h.view(item))
}

func (h *handlers) startRun(w http.ResponseWriter, r *http.Request) {
	if h.deps.Runner == nil {
		writeError(w, http.StatusServiceUnavailable, ErrorTypeUnavailable, "scanner not configured", "")
		return
	}

	opts := autopublish.RunOptions{Trigger: history.TriggerManual}
	if v := r.URL.Query().Get("dry_run"); v != "" {
		dryRun, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, "dry_run must be a boolean", "dry_run")
			return
		}
		opts.DryRun = dryRun
	}

	result, err := h.deps.Runner.RunNow(r.Context(), opts)
	if errors.Is(err, autopublish.ErrRunInProgress) {
		writeError(w, http.StatusConflict, ErrorTypeConflict, err.Error(), "")
		return
	}
	if err != nil {
		h.serverError(w, r, "run failed", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) listRuns(w http.ResponseWriter, r *http.Request) {
	if h.deps.History == nil {
		writeError(w, http.StatusServiceUnavailable, ErrorTypeUnavailable, "run history disabled", "")
		return
	}

	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, "limit must be a non-negative integer", "limit")
			return
		}
		limit = n
	}

	runs, err := h.deps.History.List(r.Context(), limit)
	if err != nil {
		h.serverError(w, r, "history query failed", err)
		return
	}
	if runs == nil {
		runs = []*history.Record{}
	}
	writeJSON(w, http.StatusOK, RunList{Runs: runs, Count: len(runs)})
}

func (h *handlers) loadItem(w http.ResponseWriter, r *http.Request) (*content.Item, bool) {
	id := r.PathValue("id")
	item, err := h.deps.Catalog.Get(r.Context(), id)
	if errors.Is(err, content.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrorTypeNotFound, "item "+id+" not found", "id")
		return nil, false
	}
	if err != nil {
		h.serverError(w, r, "load failed", err)
		return nil, false
	}
	return item, true
}

func (h *handlers) view(item *content.Item) ItemView {
	v := ItemView{Item: item, Transitions: []string{}}
	if h.deps.Engine != nil {
		for _, t := range h.deps.Engine.AvailableTransitions(item) {
			v.Transitions = append(v.Transitions, t.ID)
		}
	}
	return v
}

func (h *handlers) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, ErrorTypeServer, msg+": "+err.Error(), "")
}
