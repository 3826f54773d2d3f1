package ledger

// Category suggestions shown in the entry form, per kind. Free-form
// categories are still accepted; these are only defaults.
var (
	incomeCategories = []string{
		"Sales",
		"Services",
		"Consulting",
		"Commission",
		"Interest",
		"Other income",
	}

	expenseCategories = []string{
		"Supplies",
		"Inventory",
		"Rent",
		"Utilities",
		"Salaries",
		"Transport",
		"Marketing",
		"Fees",
		"Taxes",
		"Other expense",
	}
)

// CategorySuggestions returns the suggested categories for a kind. An
// unknown kind yields nil.
func CategorySuggestions(kind Kind) []string {
	switch kind {
	case KindIncome:
		return incomeCategories
	case KindExpense:
		return expenseCategories
	default:
		return nil
	}
}
