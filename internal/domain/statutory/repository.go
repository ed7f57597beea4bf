package statutory

import "context"

type StatutoryRepository interface {
	ListActiveSchemes(ctx context.Context) ([]ContributionScheme, error)
	ListTaxBrackets(ctx context.Context) ([]TaxBracket, error)

	// SeedDefaults fills empty tables and reports whether anything was written
	SeedDefaults(ctx context.Context, schemes []ContributionScheme, brackets []TaxBracket) (bool, error)
}
