package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loanlink-portal/internal/adapters/http/middleware"
	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/core/guard"
	"loanlink-portal/internal/core/listing"
	"loanlink-portal/internal/core/services"
	"loanlink-portal/internal/pkg/response"
)

// ApplicationHandler serves the apply form and the application tables
type ApplicationHandler struct {
	applicationService *services.ApplicationService
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(applicationService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

// ApplyPage returns the apply form context
// @Summary Apply form
// @Tags Applications
// @Produce json
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Router /apply-loan/{id} [get]
func (h *ApplicationHandler) ApplyPage(c *fiber.Ctx) error {
	view, err := h.applicationService.ApplyContext(c.UserContext(), middleware.ViewerFrom(c), c.Params("id"))
	if err != nil {
		return viewFailure(c, err)
	}
	return response.Success(c, "", view)
}

// Apply submits an application
// @Summary Apply for a loan
// @Description Creates a Pending application with an Unpaid fee
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Loan ID"
// @Param body body services.ApplicationForm true "Application"
// @Success 201 {object} response.Response
// @Success 303
// @Failure 422 {object} response.Response
// @Router /apply-loan/{id} [post]
func (h *ApplicationHandler) Apply(c *fiber.Ctx) error {
	var form services.ApplicationForm
	if err := c.BodyParser(&form); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	id, err := h.applicationService.Apply(c.UserContext(), middleware.ViewerFrom(c), c.Params("id"), form)
	if err != nil {
		return writeFailure(c, err)
	}
	if !c.Is("json") {
		return response.SeeOther(c, guard.RouteMyLoans)
	}
	c.Set(fiber.HeaderLocation, guard.RouteMyLoans)
	return response.Created(c, "Application submitted successfully", fiber.Map{"id": id})
}

// MyLoans lists the borrower's applications
// @Summary My loans
// @Tags Applications
// @Produce json
// @Success 200 {object} response.Response
// @Router /dashboard/my-loans [get]
func (h *ApplicationHandler) MyLoans(c *fiber.Ctx) error {
	view, err := h.applicationService.MyLoans(c.UserContext(), middleware.ViewerFrom(c))
	if err != nil {
		return viewFailure(c, err)
	}
	return response.Success(c, "", view)
}

// Cancel withdraws a pending application
// @Summary Cancel application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /dashboard/my-loans/{id}/cancel [patch]
func (h *ApplicationHandler) Cancel(c *fiber.Ctx) error {
	if err := h.applicationService.Cancel(c.UserContext(), middleware.ViewerFrom(c), c.Params("id")); err != nil {
		return writeFailure(c, err)
	}
	return response.Done(c, "Application cancelled", nil)
}

// PayFee opens a checkout for the application fee
// @Summary Pay application fee
// @Description Returns the checkout URL; form posts are redirected to it
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response
// @Success 303
// @Failure 409 {object} response.Response
// @Router /dashboard/my-loans/{id}/pay-fee [post]
func (h *ApplicationHandler) PayFee(c *fiber.Ctx) error {
	url, err := h.applicationService.PayFee(c.UserContext(), middleware.ViewerFrom(c), c.Params("id"))
	if err != nil {
		return writeFailure(c, err)
	}
	if !c.Is("json") {
		return response.SeeOther(c, url)
	}
	return response.Success(c, "Redirecting to checkout", fiber.Map{"redirectUrl": url})
}

func (h *ApplicationHandler) list(c *fiber.Ctx, status string) error {
	view, err := h.applicationService.List(c.UserContext(), middleware.ViewerFrom(c), status)
	if err != nil {
		return viewFailure(c, err)
	}
	return response.Success(c, "", view)
}

// ManageApplications lists every application with a status filter
// @Summary Manage loan applications
// @Tags Applications
// @Produce json
// @Param status query string false "all, Pending, Approved, Rejected or Cancelled"
// @Success 200 {object} response.Response
// @Router /dashboard/manage-loan-applications [get]
func (h *ApplicationHandler) ManageApplications(c *fiber.Ctx) error {
	return h.list(c, c.Query("status", listing.StatusAll))
}

// Pending lists applications waiting for review
// @Summary Pending applications
// @Tags Applications
// @Produce json
// @Success 200 {object} response.Response
// @Router /dashboard/pending-loans [get]
func (h *ApplicationHandler) Pending(c *fiber.Ctx) error {
	return h.list(c, string(domain.ApplicationPending))
}

// Approved lists approved applications
// @Summary Approved applications
// @Tags Applications
// @Produce json
// @Success 200 {object} response.Response
// @Router /dashboard/approved-loans [get]
func (h *ApplicationHandler) Approved(c *fiber.Ctx) error {
	return h.list(c, string(domain.ApplicationApproved))
}

// Review approves or rejects a pending application
// @Summary Review application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Param action path string true "approve or reject"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /dashboard/pending-loans/{id}/{action} [patch]
func (h *ApplicationHandler) Review(c *fiber.Ctx) error {
	action := c.Params("action")
	if err := h.applicationService.Review(c.UserContext(), middleware.ViewerFrom(c), c.Params("id"), action); err != nil {
		return writeFailure(c, err)
	}
	return response.Done(c, "Application "+action+"d", nil)
}
