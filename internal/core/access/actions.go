package access

// Action names a capability checked by CanPerform. Policies may grant a
// whole family with a trailing wildcard, e.g. "user:*".
type Action string

// Loan catalog actions
const (
	LoanApply      Action = "loan:apply"
	LoanCreate     Action = "loan:create"
	LoanUpdate     Action = "loan:update"
	LoanDelete     Action = "loan:delete"
	LoanToggleHome Action = "loan:toggle-home"
)

// Application actions
const (
	ApplicationViewOwn Action = "application:view-own"
	ApplicationCancel  Action = "application:cancel"
	ApplicationPayFee  Action = "application:pay-fee"
	ApplicationViewAll Action = "application:view-all"
	ApplicationApprove Action = "application:approve"
	ApplicationReject  Action = "application:reject"
)

// User administration actions
const (
	UserList    Action = "user:list"
	UserSetRole Action = "user:set-role"
	UserSuspend Action = "user:suspend"
)

// Profile actions
const (
	ProfileRead   Action = "profile:read"
	ProfileUpdate Action = "profile:update"
)

// AllActions lists every concrete action
var AllActions = []Action{
	LoanApply, LoanCreate, LoanUpdate, LoanDelete, LoanToggleHome,
	ApplicationViewOwn, ApplicationCancel, ApplicationPayFee,
	ApplicationViewAll, ApplicationApprove, ApplicationReject,
	UserList, UserSetRole, UserSuspend,
	ProfileRead, ProfileUpdate,
}

var validActions = func() map[Action]struct{} {
	m := make(map[Action]struct{}, len(AllActions))
	for _, a := range AllActions {
		m[a] = struct{}{}
	}
	return m
}()

// knownAction reports whether a is one of AllActions
func knownAction(a Action) bool {
	_, ok := validActions[a]
	return ok
}
