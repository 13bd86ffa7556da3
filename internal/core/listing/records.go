package listing

import (
	"strings"

	"loanlink-portal/internal/core/domain"
)

// StatusAll disables the status filter
const StatusAll = "all"

// FilterApplications keeps applications with the given status, compared
// case-insensitively. An empty status or "all" keeps everything.
func FilterApplications(apps []domain.LoanApplication, status string) []domain.LoanApplication {
	status = strings.TrimSpace(status)
	out := make([]domain.LoanApplication, 0, len(apps))
	for _, app := range apps {
		if status != "" && !strings.EqualFold(status, StatusAll) && !strings.EqualFold(string(app.Status), status) {
			continue
		}
		out = append(out, app)
	}
	return out
}

// SearchUsers keeps users whose email or display name contains term and,
// when role is set, whose role matches it.
func SearchUsers(users []domain.User, term string, role domain.Role) []domain.User {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if role != domain.RoleNone && domain.ParseRole(string(u.Role)) != role {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(u.Email), term) &&
			!strings.Contains(strings.ToLower(u.DisplayName), term) {
			continue
		}
		out = append(out, u)
	}
	return out
}
