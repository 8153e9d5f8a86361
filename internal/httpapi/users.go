package httpapi

import (
	"net/http"

	"github.com/perseusdefend/perseus/internal/service"
	"github.com/perseusdefend/perseus/pkg/idx"
)

// UserHandler is the user admin surface. The policy table keeps most of
// it admin-only; GET and PUT on a single user also admit the user
// themself.
type UserHandler struct {
	Accounts *service.AccountService
}

// HandleList godoc
//
//	@Summary	List users
//	@Tags		users
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Router		/api/users [get]
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Accounts.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newAccountViews(accounts))
}

// HandleGet godoc
//
//	@Summary	Fetch one user
//	@Tags		users
//	@Produce	json
//	@Param		id	path	string	true	"User id"
//	@Success	200	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Router		/api/users/{id} [get]
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	account, err := h.Accounts.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newAccountView(&account))
}

type updateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// HandleUpdate godoc
//
//	@Summary	Update a user's profile
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Param		id	path	string	true	"User id"
//	@Success	200	{object}	envelope
//	@Router		/api/users/{id} [put]
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email, ok := requireEmail(w, req.Email)
	if !ok {
		return
	}
	role, ok := requireRole(w, req.Role)
	if !ok {
		return
	}

	res, err := h.Accounts.Update(r.Context(), service.UpdateAccountInput{
		ID:    id,
		Email: email,
		Name:  req.Name,
		Role:  role,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if res.Outcome != "" {
		respondOutcome(w, res.Outcome, nil)
		return
	}
	respondData(w, http.StatusOK, newAccountView(res.Account))
}

// HandleDelete godoc
//
//	@Summary	Delete a user
//	@Tags		users
//	@Produce	json
//	@Param		id	path	string	true	"User id"
//	@Success	200	{object}	envelope
//	@Router		/api/users/{id} [delete]
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Accounts.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, nil)
}

// HandleProducts godoc
//
//	@Summary	List the products assigned to a user
//	@Tags		users
//	@Produce	json
//	@Param		id	path	string	true	"User id"
//	@Success	200	{object}	envelope
//	@Router		/api/users/{id}/products [get]
func (h *UserHandler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	products, err := h.Accounts.Products(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newProductViews(products))
}

type assignProductRequest struct {
	ProductID string `json:"productId"`
}

// HandleAssignProduct godoc
//
//	@Summary	Assign a product to a user
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Param		id	path	string	true	"User id"
//	@Success	200	{object}	envelope
//	@Router		/api/users/{id}/assign-product [post]
func (h *UserHandler) HandleAssignProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	productID, ok := h.productIDFromBody(w, r)
	if !ok {
		return
	}

	if err := h.Accounts.AssignProduct(r.Context(), id, productID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, nil)
}

// HandleUnassignProduct godoc
//
//	@Summary	Remove a product assignment from a user
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Param		id	path	string	true	"User id"
//	@Success	200	{object}	envelope
//	@Router		/api/users/{id}/assign-product [delete]
func (h *UserHandler) HandleUnassignProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	productID, ok := h.productIDFromBody(w, r)
	if !ok {
		return
	}

	if err := h.Accounts.UnassignProduct(r.Context(), id, productID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, nil)
}

func (h *UserHandler) productIDFromBody(w http.ResponseWriter, r *http.Request) (idx.ID, bool) {
	var req assignProductRequest
	if !decodeBody(w, r, &req) {
		return idx.Zero, false
	}

	productID, err := idx.Parse(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return idx.Zero, false
	}
	return productID, true
}
