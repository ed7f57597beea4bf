package payroll

import (
	"strings"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
)

var legacyCategoryKeywords = []struct {
	category payroll.RuleCategory
	keywords []string
}{
	{payroll.RuleCategoryContribution, []string{"gsis", "philhealth", "phic", "pag-ibig", "pagibig", "hdmf", "sss"}},
	{payroll.RuleCategoryThirteenthMonth, []string{"13th", "thirteenth"}},
	{payroll.RuleCategoryServiceIncentiveLeave, []string{"service incentive", "sil"}},
	{payroll.RuleCategoryLoan, []string{"loan"}},
}

// LegacyCategoryFromName guesses the category of a rule created before categories were
// stored. Only the migrate-rule-categories command calls it.
func LegacyCategoryFromName(name string) payroll.RuleCategory {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '_' || r == '/' || r == '(' || r == ')' || r == ','
	})
	normalized := " " + strings.Join(words, " ") + " "

	for _, entry := range legacyCategoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(normalized, kw) && matchesWord(normalized, kw) {
				return entry.category
			}
		}
	}
	return payroll.RuleCategoryGeneral
}

// matchesWord keeps short keywords like "sil" from matching inside longer words
func matchesWord(normalized, kw string) bool {
	if len(kw) > 4 || strings.Contains(kw, " ") {
		return true
	}
	return strings.Contains(normalized, " "+kw+" ")
}
