package domain

import (
	"strings"
	"time"
)

// Role represents the authorization role of a signed-in user
type Role string

const (
	// RoleNone means there is no identity or the role has not been resolved yet
	RoleNone     Role = ""
	RoleUnknown  Role = "unknown"
	RoleBorrower Role = "borrower"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// ParseRole normalizes a role string coming from the user-record service.
// Anything outside the closed set resolves to RoleUnknown.
func ParseRole(s string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleBorrower, RoleManager, RoleAdmin:
		return r
	}
	return RoleUnknown
}

// Known reports whether r is one of borrower, manager or admin
func (r Role) Known() bool {
	return r == RoleBorrower || r == RoleManager || r == RoleAdmin
}

// Identity is a principal issued by the identity provider
type Identity struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	PhotoURL     string    `json:"photoURL"`
	Token        string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"-"`
}

// tokenSkew refreshes provider tokens slightly before they actually expire
const tokenSkew = 30 * time.Second

// Expired reports whether the bearer token needs a refresh at now
func (i *Identity) Expired(now time.Time) bool {
	if i.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(tokenSkew).Before(i.ExpiresAt)
}

// Profile holds the user-editable identity attributes
type Profile struct {
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// UserStatus is the account status kept on the backend user record
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
)

// User is the backend user record keyed by email
type User struct {
	Email           string     `json:"email"`
	DisplayName     string     `json:"displayName"`
	PhotoURL        string     `json:"photoURL"`
	Role            Role       `json:"role,omitempty"`
	Status          UserStatus `json:"status,omitempty"`
	SuspendReason   string     `json:"suspendReason,omitempty"`
	SuspendFeedback string     `json:"suspendFeedback,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

// UserPatch is a partial update of a user record (PATCH /users/:email)
type UserPatch struct {
	DisplayName     *string     `json:"displayName,omitempty"`
	PhotoURL        *string     `json:"photoURL,omitempty"`
	Role            *Role       `json:"role,omitempty"`
	Status          *UserStatus `json:"status,omitempty"`
	SuspendReason   *string     `json:"suspendReason,omitempty"`
	SuspendFeedback *string     `json:"suspendFeedback,omitempty"`
}

// Loan is a loan product offered on the marketplace
type Loan struct {
	ID                string     `json:"_id,omitempty"`
	Title             string     `json:"title"`
	ShortDescription  string     `json:"short_description"`
	Description       string     `json:"description"`
	Category          string     `json:"loan_category"`
	InterestRate      float64    `json:"interest_rate"`
	MaxLoanLimit      float64    `json:"max_loan_limit"`
	EMIPlans          []string   `json:"available_emi_plan"`
	RequiredDocuments []string   `json:"requiredDocuments"`
	Image             string     `json:"image"`
	ShowOnHome        bool       `json:"showOnHome"`
	CreatedBy         string     `json:"createdBy,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
}

// LoanPatch is a partial update of a loan (PATCH /loans/:id)
type LoanPatch struct {
	Title             *string   `json:"title,omitempty"`
	ShortDescription  *string   `json:"short_description,omitempty"`
	Description       *string   `json:"description,omitempty"`
	Category          *string   `json:"loan_category,omitempty"`
	InterestRate      *float64  `json:"interest_rate,omitempty"`
	MaxLoanLimit      *float64  `json:"max_loan_limit,omitempty"`
	EMIPlans          *[]string `json:"available_emi_plan,omitempty"`
	RequiredDocuments *[]string `json:"requiredDocuments,omitempty"`
	Image             *string   `json:"image,omitempty"`
	ShowOnHome        *bool     `json:"showOnHome,omitempty"`
}

// ApplicationStatus is the review status of a loan application
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "Pending"
	ApplicationApproved  ApplicationStatus = "Approved"
	ApplicationRejected  ApplicationStatus = "Rejected"
	ApplicationCancelled ApplicationStatus = "Cancelled"
)

// FeeStatus is the application fee payment status
type FeeStatus string

const (
	FeeUnpaid FeeStatus = "Unpaid"
	FeePaid   FeeStatus = "Paid"
)

// LoanApplication is a borrower's application for a loan
type LoanApplication struct {
	ID                   string            `json:"_id,omitempty"`
	UserEmail            string            `json:"userEmail"`
	LoanID               string            `json:"loanId"`
	LoanTitle            string            `json:"loanTitle"`
	InterestRate         float64           `json:"interestRate"`
	FirstName            string            `json:"firstName"`
	LastName             string            `json:"lastName"`
	ContactNumber        string            `json:"contactNumber"`
	NIDPassport          string            `json:"nidPassport"`
	IncomeSource         string            `json:"incomeSource"`
	MonthlyIncome        float64           `json:"monthlyIncome"`
	LoanAmount           float64           `json:"loanAmount"`
	LoanReason           string            `json:"loanReason"`
	Address              string            `json:"address"`
	ExtraNotes           string            `json:"extraNotes,omitempty"`
	Status               ApplicationStatus `json:"status"`
	ApplicationFeeStatus FeeStatus         `json:"applicationFeeStatus"`
	TransactionID        string            `json:"transactionId,omitempty"`
	CreatedAt            *time.Time        `json:"created_at,omitempty"`
}

// PaymentSessionRequest asks the payment-session service for a checkout
type PaymentSessionRequest struct {
	ApplicationID string `json:"applicationId"`
	LoanTitle     string `json:"loanTitle"`
	Email         string `json:"email"`
	SuccessURL    string `json:"successUrl"`
	CancelURL     string `json:"cancelUrl"`
}

// PaymentConfirmation is returned when a payment session is reconciled
type PaymentConfirmation struct {
	TransactionID string `json:"transactionId"`
	TrackingID    string `json:"trackingId"`
	ModifiedCount int    `json:"modifiedCount"`
}
