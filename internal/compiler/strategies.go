package compiler

import (
	"slices"

	"github.com/fuzzyyeti/shank/internal/ir"
	"github.com/fuzzyyeti/shank/internal/source"
)

var strategyAttrs = map[string]ir.Strategy{
	"default_optional_accounts":         ir.StrategyDefaultOptionalAccounts,
	"legacy_optional_accounts_strategy": ir.StrategyLegacyOptionalAccounts,
}

// ExtractStrategies returns the strategy markers on a case, sorted and
// without duplicates. Unrelated annotations are ignored; it never fails.
func ExtractStrategies(annotations []source.Annotation) []ir.Strategy {
	out := []ir.Strategy{}
	for _, a := range annotations {
		if s, ok := strategyAttrs[a.Name]; ok {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
