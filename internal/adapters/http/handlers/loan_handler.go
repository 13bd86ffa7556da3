package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loanlink-portal/internal/adapters/http/middleware"
	"loanlink-portal/internal/core/guard"
	"loanlink-portal/internal/core/listing"
	"loanlink-portal/internal/core/services"
	"loanlink-portal/internal/pkg/pagination"
	"loanlink-portal/internal/pkg/response"
)

// LoanHandler serves the loan catalog and the loan management views
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// ToggleHomeRequest sets whether a loan is featured on the home page
type ToggleHomeRequest struct {
	ShowOnHome bool `json:"showOnHome" form:"showOnHome"`
}

// Home returns the featured loans
// @Summary Home page
// @Description Loans marked for the home page, at most six
// @Tags Loans
// @Produce json
// @Success 200 {object} response.Response
// @Success 202 {object} response.Response
// @Router / [get]
func (h *LoanHandler) Home(c *fiber.Ctx) error {
	view, err := h.loanService.Home(c.UserContext(), middleware.ViewerFrom(c))
	if err != nil {
		return viewFailure(c, err)
	}
	return response.Success(c, "", view)
}

// AllLoans returns one page of the public catalog
// @Summary All loans
// @Description Search, filter, sort and page the loan catalog
// @Tags Loans
// @Produce json
// @Param search query string false "Matches title or category"
// @Param category query string false "Exact category"
// @Param interest query string false "low (<= 10) or high (> 10)"
// @Param sort query string false "interestAsc, interestDesc, maxLoanAsc or maxLoanDesc"
// @Param page query int false "Page number" default(1)
// @Success 200 {object} response.Response
// @Router /all-loans [get]
func (h *LoanHandler) AllLoans(c *fiber.Ctx) error {
	var q listing.LoanQuery
	if err := c.QueryParser(&q); err != nil {
		return response.BadRequest(c, "Invalid query")
	}

	page, err := h.loanService.AllLoans(c.UserContext(), middleware.ViewerFrom(c), q, pagination.GetParams(c))
	if err != nil {
		return viewFailure(c, err)
	}
	return response.Success(c, "", page)
}

// Details returns one loan and whether the viewer may apply for it
// @Summary View loan details
// @Tags Loans
// @Produce json
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /view-details/{id} [get]
func (h *LoanHandler) Details(c *fiber.Ctx) error {
	view, err := h.loanService.Details(c.UserContext(), middleware.ViewerFrom(c), c.Params("id"))
	if err != nil {
		return viewFailure(c, err)
	}
	return response.Success(c, "", view)
}

// Manage lists loans for the manager and admin tables
// @Summary Manage loans
// @Tags Loans
// @Produce json
// @Param search query string false "Matches title or category"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/manage-loans [get]
// @Router /dashboard/manage-all-loans [get]
func (h *LoanHandler) Manage(c *fiber.Ctx) error {
	view, err := h.loanService.Manage(c.UserContext(), middleware.ViewerFrom(c), c.Query("search"))
	if err != nil {
		return viewFailure(c, err)
	}
	return response.Success(c, "", view)
}

// AddPage returns the add-loan form context
// @Summary Add loan form
// @Tags Loans
// @Produce json
// @Success 200 {object} response.Response
// @Router /dashboard/add-loan [get]
func (h *LoanHandler) AddPage(c *fiber.Ctx) error {
	return response.Success(c, "", fiber.Map{"defaultImage": services.DefaultLoanImage})
}

// Add creates a loan
// @Summary Add loan
// @Description Comma-separated EMI plans and documents are split and trimmed
// @Tags Loans
// @Accept json
// @Produce json
// @Param body body services.LoanForm true "Loan"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /dashboard/add-loan [post]
func (h *LoanHandler) Add(c *fiber.Ctx) error {
	var form services.LoanForm
	if err := c.BodyParser(&form); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	id, err := h.loanService.Add(c.UserContext(), middleware.ViewerFrom(c), form)
	if err != nil {
		return writeFailure(c, err)
	}
	if !c.Is("json") {
		return response.SeeOther(c, guard.RouteManageLoans)
	}
	return response.Created(c, "Loan added successfully", fiber.Map{"id": id})
}

// Update patches a loan
// @Summary Update loan
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path string true "Loan ID"
// @Param body body services.LoanUpdateForm true "Changed fields"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /dashboard/manage-loans/{id} [patch]
// @Router /dashboard/manage-all-loans/{id} [patch]
func (h *LoanHandler) Update(c *fiber.Ctx) error {
	var form services.LoanUpdateForm
	if err := c.BodyParser(&form); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.loanService.Update(c.UserContext(), middleware.ViewerFrom(c), c.Params("id"), form); err != nil {
		return writeFailure(c, err)
	}
	return response.Done(c, "Loan updated successfully", nil)
}

// ToggleHome sets whether a loan is featured on the home page
// @Summary Toggle show-on-home
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path string true "Loan ID"
// @Param body body ToggleHomeRequest true "Flag"
// @Success 200 {object} response.Response
// @Router /dashboard/manage-all-loans/{id}/show-on-home [patch]
func (h *LoanHandler) ToggleHome(c *fiber.Ctx) error {
	var req ToggleHomeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.loanService.ToggleHome(c.UserContext(), middleware.ViewerFrom(c), c.Params("id"), req.ShowOnHome); err != nil {
		return writeFailure(c, err)
	}
	return response.Done(c, "Home page updated", fiber.Map{"showOnHome": req.ShowOnHome})
}

// Delete removes a loan
// @Summary Delete loan
// @Tags Loans
// @Produce json
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Router /dashboard/manage-loans/{id} [delete]
// @Router /dashboard/manage-all-loans/{id} [delete]
func (h *LoanHandler) Delete(c *fiber.Ctx) error {
	if err := h.loanService.Delete(c.UserContext(), middleware.ViewerFrom(c), c.Params("id")); err != nil {
		return writeFailure(c, err)
	}
	return response.Done(c, "Loan deleted", nil)
}
