package httpapi

import (
	"net/http"

	"github.com/perseusdefend/perseus/internal/service"
)

// ProductHandler is the product catalogue. Reads are open to every
// role, demo accounts included; writes are admin-only per the policy
// table.
type ProductHandler struct {
	Products *service.ProductService
}

type productRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	IsActive    bool     `json:"isActive"`
}

func (req *productRequest) validate(w http.ResponseWriter) bool {
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Product name is required")
		return false
	}
	return true
}

// HandleList godoc
//
//	@Summary	List products
//	@Tags		products
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Router		/api/products [get]
func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.Products.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newProductViews(products))
}

// HandleCreate godoc
//
//	@Summary	Create a product
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Success	201	{object}	envelope
//	@Router		/api/products [post]
func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeBody(w, r, &req) || !req.validate(w) {
		return
	}

	product, err := h.Products.Create(r.Context(), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Features:    req.Features,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, newProductView(&product))
}

// HandleGet godoc
//
//	@Summary	Fetch one product
//	@Tags		products
//	@Produce	json
//	@Param		id	path	string	true	"Product id"
//	@Success	200	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Router		/api/products/{id} [get]
func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.Products.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newProductView(&product))
}

// HandleUpdate godoc
//
//	@Summary	Update a product
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		id	path	string	true	"Product id"
//	@Success	200	{object}	envelope
//	@Router		/api/products/{id} [put]
func (h *ProductHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req productRequest
	if !decodeBody(w, r, &req) || !req.validate(w) {
		return
	}

	product, err := h.Products.Update(r.Context(), id, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Features:    req.Features,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newProductView(&product))
}

// HandleDelete godoc
//
//	@Summary	Delete a product
//	@Tags		products
//	@Produce	json
//	@Param		id	path	string	true	"Product id"
//	@Success	200	{object}	envelope
//	@Router		/api/products/{id} [delete]
func (h *ProductHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Products.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, nil)
}

// HandleUsers godoc
//
//	@Summary	List the users assigned to a product
//	@Tags		products
//	@Produce	json
//	@Param		id	path	string	true	"Product id"
//	@Success	200	{object}	envelope
//	@Router		/api/products/{id}/users [get]
func (h *ProductHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	accounts, err := h.Products.Users(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newAccountViews(accounts))
}
