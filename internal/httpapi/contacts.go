package httpapi

import (
	"net/http"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/internal/service"
)

// ContactHandler covers the public contact form and the admin triage
// surface behind it.
type ContactHandler struct {
	Contacts *service.ContactService
}

type contactSubmitRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	CompanyName string `json:"companyName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Message     string `json:"message"`
}

// HandleSubmit godoc
//
//	@Summary	Submit the public contact form
//	@Tags		contact
//	@Accept		json
//	@Produce	json
//	@Success	201	{object}	envelope
//	@Failure	429	{object}	envelope
//	@Router		/api/contact [post]
func (h *ContactHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req contactSubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email, ok := requireEmail(w, req.Email)
	if !ok {
		return
	}
	if req.FirstName == "" || req.Message == "" {
		respondError(w, http.StatusBadRequest, "Name and message are required")
		return
	}

	contact, err := h.Contacts.Submit(r.Context(), service.ContactInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       email,
		CompanyName: req.CompanyName,
		PhoneNumber: req.PhoneNumber,
		Message:     req.Message,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, newContactView(&contact))
}

// HandleList godoc
//
//	@Summary	List contact submissions
//	@Tags		contact
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Router		/api/contacts [get]
func (h *ContactHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.Contacts.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newContactViews(contacts))
}

// HandleGet godoc
//
//	@Summary	Fetch one contact submission
//	@Tags		contact
//	@Produce	json
//	@Param		id	path	string	true	"Contact id"
//	@Success	200	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Router		/api/contacts/{id} [get]
func (h *ContactHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	contact, err := h.Contacts.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newContactView(&contact))
}

type contactStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateStatus godoc
//
//	@Summary	Move a contact submission through triage
//	@Tags		contact
//	@Accept		json
//	@Produce	json
//	@Param		id	path	string	true	"Contact id"
//	@Success	200	{object}	envelope
//	@Router		/api/contacts/{id} [put]
func (h *ContactHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req contactStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	status := domain.ContactStatus(req.Status)
	if !status.Valid() {
		respondError(w, http.StatusBadRequest, "Unknown status")
		return
	}

	contact, err := h.Contacts.UpdateStatus(r.Context(), id, status)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newContactView(&contact))
}

// HandleDelete godoc
//
//	@Summary	Delete a contact submission
//	@Tags		contact
//	@Produce	json
//	@Param		id	path	string	true	"Contact id"
//	@Success	200	{object}	envelope
//	@Router		/api/contacts/{id} [delete]
func (h *ContactHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Contacts.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, nil)
}
