package httpapi

import (
	"net/http"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/internal/service"
)

// DemoRequestHandler is the admin triage view over demo requests.
type DemoRequestHandler struct {
	DemoRequests *service.DemoRequestService
}

// HandleList godoc
//
//	@Summary	List demo requests
//	@Tags		demo-requests
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Router		/api/demo-requests [get]
func (h *DemoRequestHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.DemoRequests.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newDemoRequestViews(items))
}

type demoStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateStatus godoc
//
//	@Summary	Approve or dismiss a demo request
//	@Tags		demo-requests
//	@Accept		json
//	@Produce	json
//	@Param		id	path	string	true	"Demo request id"
//	@Success	200	{object}	envelope
//	@Router		/api/demo-requests/{id} [put]
func (h *DemoRequestHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req demoStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	status := domain.DemoRequestStatus(req.Status)
	switch status {
	case domain.DemoPending, domain.DemoApproved, domain.DemoDismissed:
	default:
		respondError(w, http.StatusBadRequest, "Unknown status")
		return
	}

	if err := h.DemoRequests.UpdateStatus(r.Context(), id, status); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, nil)
}
