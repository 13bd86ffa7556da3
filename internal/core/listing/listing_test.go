package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/pkg/pagination"
)

func ids(loans []domain.Loan) []string {
	out := make([]string, 0, len(loans))
	for _, l := range loans {
		out = append(out, l.ID)
	}
	return out
}

var sample = []domain.Loan{
	{ID: "a", Title: "Home Starter", Category: "Home", InterestRate: 7, MaxLoanLimit: 50000, ShowOnHome: true},
	{ID: "b", Title: "Car Plus", Category: "Vehicle", InterestRate: 12, MaxLoanLimit: 20000},
	{ID: "c", Title: "Study Loan", Category: "Education", InterestRate: 10, MaxLoanLimit: 15000, ShowOnHome: true},
	{ID: "d", Title: "Bike", Category: "Vehicle", InterestRate: 7, MaxLoanLimit: 3000},
}

func TestFilterLoansSearchMatchesTitleOrCategory(t *testing.T) {
	assert.Equal(t, []string{"b", "d"}, ids(FilterLoans(sample, LoanQuery{Search: "vehic"})))
	assert.Equal(t, []string{"c"}, ids(FilterLoans(sample, LoanQuery{Search: "  STUDY "})))
}

func TestFilterLoansInterestBands(t *testing.T) {
	assert.Equal(t, []string{"a", "c", "d"}, ids(FilterLoans(sample, LoanQuery{Interest: InterestLow})))
	assert.Equal(t, []string{"b"}, ids(FilterLoans(sample, LoanQuery{Interest: InterestHigh})))
}

func TestFilterLoansStableSort(t *testing.T) {
	got := FilterLoans(sample, LoanQuery{Sort: SortInterestAsc})
	assert.Equal(t, []string{"a", "d", "c", "b"}, ids(got))

	got = FilterLoans(sample, LoanQuery{Sort: SortMaxLoanDesc, Category: "Vehicle"})
	assert.Equal(t, []string{"b", "d"}, ids(got))
}

func TestFilterLoansDoesNotMutateInput(t *testing.T) {
	before := ids(sample)
	FilterLoans(sample, LoanQuery{Sort: SortInterestDesc})
	assert.Equal(t, before, ids(sample))
}

func TestPageLoans(t *testing.T) {
	page := PageLoans(sample, LoanQuery{}, pagination.New(2, 3))
	assert.Equal(t, []string{"d"}, ids(page.Loans))
	require.NotNil(t, page.Meta)
	assert.Equal(t, 2, page.Meta.TotalPages)
	assert.False(t, page.Meta.HasNext)
	assert.Equal(t, []string{"Home", "Vehicle", "Education"}, page.Categories)
}

func TestFeaturedCapsAtHomeLimit(t *testing.T) {
	var loans []domain.Loan
	for i := 0; i < 10; i++ {
		loans = append(loans, domain.Loan{ID: string(rune('a' + i)), ShowOnHome: i%3 != 2})
	}
	got := Featured(loans)
	assert.Len(t, got, HomeLimit)
	for _, l := range got {
		assert.True(t, l.ShowOnHome)
	}
	assert.Equal(t, []string{"a", "c"}, ids(Featured(sample)))
}

func TestFilterApplications(t *testing.T) {
	apps := []domain.LoanApplication{
		{ID: "1", Status: domain.ApplicationPending},
		{ID: "2", Status: domain.ApplicationApproved},
		{ID: "3", Status: domain.ApplicationPending},
	}
	assert.Len(t, FilterApplications(apps, "pending"), 2)
	assert.Len(t, FilterApplications(apps, "All"), 3)
	assert.Len(t, FilterApplications(apps, ""), 3)
	assert.Empty(t, FilterApplications(apps, "Rejected"))
}

func TestSearchUsers(t *testing.T) {
	users := []domain.User{
		{Email: "ann@example.com", DisplayName: "Ann", Role: domain.RoleAdmin},
		{Email: "bob@example.com", DisplayName: "Bobby", Role: domain.RoleBorrower},
		{Email: "cy@example.com", DisplayName: "Cy", Role: "Borrower"},
	}
	assert.Len(t, SearchUsers(users, "", domain.RoleBorrower), 2)
	assert.Len(t, SearchUsers(users, "bob", domain.RoleNone), 1)
	assert.Len(t, SearchUsers(users, "EXAMPLE", domain.RoleNone), 3)
}
