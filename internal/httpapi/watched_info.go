package httpapi

import (
	"net/http"

	"github.com/perseusdefend/perseus/internal/authz"
	"github.com/perseusdefend/perseus/internal/service"
	"github.com/perseusdefend/perseus/pkg/idx"
	"github.com/perseusdefend/perseus/pkg/tokenx"
)

// WatchedInfoHandler manages monitored data points. Admins see the full
// table; everyone else is scoped to their own rows. Per-row access is
// enforced at the gate, so the id-addressed handlers trust the request.
type WatchedInfoHandler struct {
	WatchedInfo *service.WatchedInfoService
}

type watchedInfoRequest struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	AccountID string `json:"userId,omitempty"`
	ProductID string `json:"productId"`
	IsActive  bool   `json:"isActive"`
}

// HandleList godoc
//
//	@Summary	List watched info
//	@Tags		watched-info
//	@Produce	json
//	@Param		userId	query	string	false	"Filter by account"
//	@Success	200	{object}	envelope
//	@Router		/api/watched-info [get]
func (h *WatchedInfoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id := authz.IdentityFromContext(r.Context())

	// The gate already refused non-admins asking for someone else, so a
	// present userId is either the caller's own or an admin filter.
	if target := r.URL.Query().Get("userId"); target != "" {
		accountID, err := idx.Parse(target)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user id")
			return
		}
		items, err := h.WatchedInfo.ListByAccount(r.Context(), accountID)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondData(w, http.StatusOK, newWatchedInfoViews(items))
		return
	}

	if id.Role == tokenx.RoleAdmin {
		items, err := h.WatchedInfo.List(r.Context())
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondData(w, http.StatusOK, newWatchedInfoViews(items))
		return
	}

	items, err := h.WatchedInfo.ListByAccount(r.Context(), id.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newWatchedInfoViews(items))
}

// HandleCreate godoc
//
//	@Summary		Register a watched data point
//	@Description	Non-admins can only register entries for themselves.
//	@Tags			watched-info
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	envelope
//	@Router			/api/watched-info [post]
func (h *WatchedInfoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req watchedInfoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Type == "" || req.Value == "" {
		respondError(w, http.StatusBadRequest, "Type and value are required")
		return
	}

	productID, err := idx.Parse(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	id := authz.IdentityFromContext(r.Context())

	// Admins may register on behalf of any account.
	accountID := id.ID
	if req.AccountID != "" {
		parsed, err := idx.Parse(req.AccountID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user id")
			return
		}
		if parsed != id.ID && id.Role != tokenx.RoleAdmin {
			respondError(w, http.StatusForbidden, "You do not have permission to create this resource")
			return
		}
		accountID = parsed
	}

	item, err := h.WatchedInfo.Create(r.Context(), service.WatchedInfoInput{
		Type:      req.Type,
		Value:     req.Value,
		AccountID: accountID,
		ProductID: productID,
		IsActive:  req.IsActive,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, newWatchedInfoView(&item))
}

// HandleGet godoc
//
//	@Summary	Fetch one watched data point
//	@Tags		watched-info
//	@Produce	json
//	@Param		id	path	string	true	"Watched info id"
//	@Success	200	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Router		/api/watched-info/{id} [get]
func (h *WatchedInfoHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.WatchedInfo.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newWatchedInfoView(&item))
}

// HandleUpdate godoc
//
//	@Summary	Update a watched data point
//	@Tags		watched-info
//	@Accept		json
//	@Produce	json
//	@Param		id	path	string	true	"Watched info id"
//	@Success	200	{object}	envelope
//	@Router		/api/watched-info/{id} [put]
func (h *WatchedInfoHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req watchedInfoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Type == "" || req.Value == "" {
		respondError(w, http.StatusBadRequest, "Type and value are required")
		return
	}
	productID, err := idx.Parse(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	item, err := h.WatchedInfo.Update(r.Context(), id, service.WatchedInfoInput{
		Type:      req.Type,
		Value:     req.Value,
		ProductID: productID,
		IsActive:  req.IsActive,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newWatchedInfoView(&item))
}

// HandleDelete godoc
//
//	@Summary	Delete a watched data point
//	@Tags		watched-info
//	@Produce	json
//	@Param		id	path	string	true	"Watched info id"
//	@Success	200	{object}	envelope
//	@Router		/api/watched-info/{id} [delete]
func (h *WatchedInfoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.WatchedInfo.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, nil)
}
