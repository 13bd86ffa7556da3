package guard

import "loanlink-portal/internal/core/domain"

// Route patterns of the portal
const (
	RouteHome              = "/"
	RouteAllLoans          = "/all-loans"
	RouteLogin             = "/login"
	RouteRegister          = "/register"
	RouteViewDetails       = "/view-details/:id"
	RouteApplyLoan         = "/apply-loan/:id"
	RouteDashboard         = "/dashboard"
	RouteMyLoans           = "/dashboard/my-loans"
	RoutePaymentSuccess    = "/dashboard/payment-success"
	RoutePaymentCancelled  = "/dashboard/payment-cancelled"
	RouteManageUsers       = "/dashboard/manage-users"
	RouteManageAllLoans    = "/dashboard/manage-all-loans"
	RouteManageApplication = "/dashboard/manage-loan-applications"
	RouteAddLoan           = "/dashboard/add-loan"
	RouteManageLoans       = "/dashboard/manage-loans"
	RoutePendingLoans      = "/dashboard/pending-loans"
	RouteApprovedLoans     = "/dashboard/approved-loans"
	RouteProfile           = "/dashboard/profile"
)

// DefaultTable is the route surface of the portal
func DefaultTable() *Table {
	borrower := Roles(domain.RoleBorrower)
	manager := Roles(domain.RoleManager)
	admin := Roles(domain.RoleAdmin)

	return NewTable(
		Spec{Pattern: RouteHome, Title: "Home", Access: PublicAccess()},
		Spec{Pattern: RouteAllLoans, Title: "All Loans", Access: PublicAccess()},
		Spec{Pattern: RouteLogin, Access: PublicAccess()},
		Spec{Pattern: RouteRegister, Access: PublicAccess()},
		Spec{Pattern: RouteViewDetails, Access: AnyAuthenticated()},
		Spec{Pattern: RouteApplyLoan, Access: AnyAuthenticated()},
		Spec{Pattern: RouteDashboard, Title: "Dashboard", Access: AnyAuthenticated()},
		Spec{Pattern: RouteMyLoans, Title: "My Loans", Access: borrower},
		Spec{Pattern: RoutePaymentSuccess, Access: borrower},
		Spec{Pattern: RoutePaymentCancelled, Access: borrower},
		Spec{Pattern: RouteManageUsers, Title: "Manage Users", Access: admin},
		Spec{Pattern: RouteManageAllLoans, Title: "All Loans", Access: admin},
		Spec{Pattern: RouteManageApplication, Title: "Loan Applications", Access: admin},
		Spec{Pattern: RouteAddLoan, Title: "Add Loan", Access: manager},
		Spec{Pattern: RouteManageLoans, Title: "Manage Loans", Access: manager},
		Spec{Pattern: RoutePendingLoans, Title: "Pending Applications", Access: manager},
		Spec{Pattern: RouteApprovedLoans, Title: "Approved Applications", Access: manager},
		Spec{Pattern: RouteProfile, Title: "My Profile", Access: AnyAuthenticated()},
	)
}
