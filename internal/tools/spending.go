// Package tools implements the spending tools the reasoning loop can call,
// backed by the SSB Statbank client.
package tools

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/mnordvik/statbot/internal/agent"
	"github.com/mnordvik/statbot/internal/ssb"
)

// BudgetAPI is the slice of the SSB client the tools need.
type BudgetAPI interface {
	QueryBudget(ctx context.Context, year string, codes []string) ([]ssb.CategorySpending, error)
}

const sourceURL = "https://www.ssb.no/statbank/table/10235"

// Toolset builds the spending tools against one budget backend.
type Toolset struct {
	api    BudgetAPI
	logger *zap.Logger
}

// NewToolset creates the toolset.
func NewToolset(api BudgetAPI, logger *zap.Logger) *Toolset {
	return &Toolset{api: api, logger: logger}
}

// Register adds the three spending tools to the registry. defaultYear fills
// the year parameter when the model omits it.
func (t *Toolset) Register(reg *agent.Registry, defaultYear string) error {
	specs := []agent.ToolSpec{
		{
			Name:    "get_spending",
			Aliases: []string{"get_average_spending_by_category"},
			Params: []agent.Param{
				{Name: "category", Required: true},
				{Name: "year", Default: defaultYear},
			},
			Fn: t.getSpending,
		},
		{
			Name:    "compare_spending",
			Aliases: []string{"compare_spending_categories"},
			Params: []agent.Param{
				{Name: "category1", Required: true},
				// A single-category comparison falls back to food as the
				// reference point.
				{Name: "category2", Default: "food"},
				{Name: "year", Default: defaultYear},
			},
			Fn: t.compareSpending,
		},
		{
			Name:    "get_total_spending",
			Aliases: []string{"get_total_household_spending"},
			Params: []agent.Param{
				{Name: "year", Default: defaultYear},
			},
			Fn: t.getTotalSpending,
		},
	}

	for _, spec := range specs {
		if err := reg.Register(spec); err != nil {
			return fmt.Errorf("registering %s: %w", spec.Name, err)
		}
	}
	return nil
}

// getSpending reports the average spending for one category.
func (t *Toolset) getSpending(ctx context.Context, args map[string]string) (string, error) {
	category, year := args["category"], args["year"]

	code, ok := ssb.CodeFor(category)
	if !ok {
		return "", fmt.Errorf("category '%s' not recognized. Available categories: %s",
			category, strings.Join(ssb.CategoryNames(), ", "))
	}

	results, err := t.api.QueryBudget(ctx, year, []string{code})
	if err != nil {
		if err == ssb.ErrNoData {
			return "", fmt.Errorf("no data available for %s in %s", category, year)
		}
		return "", fmt.Errorf("retrieving data: %w", err)
	}

	entry := results[0]
	t.logger.Debug("spending lookup",
		zap.String("category", category),
		zap.String("code", code),
		zap.Float64("annualNOK", entry.AnnualNOK),
	)

	return fmt.Sprintf(
		"Norwegian households spend an average of %s NOK per month on %s (%s NOK per year). "+
			"Source: Statistics Norway Household Budget Survey %s, Table 10235. URL: %s",
		formatNOK(entry.MonthlyNOK()), entry.Label, formatNOK(entry.AnnualNOK), year, sourceURL,
	), nil
}

// compareSpending reports the ratio between two categories.
func (t *Toolset) compareSpending(ctx context.Context, args map[string]string) (string, error) {
	cat1, cat2, year := args["category1"], args["category2"], args["year"]

	code1, ok1 := ssb.CodeFor(cat1)
	code2, ok2 := ssb.CodeFor(cat2)
	if !ok1 || !ok2 {
		return "", fmt.Errorf("one or both categories not recognized: %s, %s", cat1, cat2)
	}
	if code1 == code2 {
		return "", fmt.Errorf("'%s' and '%s' map to the same spending category", cat1, cat2)
	}

	results, err := t.api.QueryBudget(ctx, year, []string{code1, code2})
	if err != nil {
		if err == ssb.ErrNoData {
			return "", fmt.Errorf("no data available for comparison in %s", year)
		}
		return "", fmt.Errorf("comparing categories: %w", err)
	}

	byCode := make(map[string]ssb.CategorySpending, len(results))
	for _, r := range results {
		byCode[r.Code] = r
	}
	first, ok1 := byCode[code1]
	second, ok2 := byCode[code2]
	if !ok1 || !ok2 {
		return "", fmt.Errorf("could not get data for both categories in %s", year)
	}

	// Present the larger category first.
	larger, smaller := first, second
	if second.MonthlyNOK() > first.MonthlyNOK() {
		larger, smaller = second, first
	}
	if smaller.MonthlyNOK() <= 0 {
		return "", fmt.Errorf("cannot compare: one category has zero spending")
	}
	ratio := larger.MonthlyNOK() / smaller.MonthlyNOK()

	return fmt.Sprintf(
		"%s (%s NOK/month) costs %.1fx more than %s (%s NOK/month). Source: SSB Table 10235 (%s)",
		larger.Label, formatNOK(larger.MonthlyNOK()),
		ratio,
		smaller.Label, formatNOK(smaller.MonthlyNOK()),
		year,
	), nil
}

// getTotalSpending reports the total across all main categories.
func (t *Toolset) getTotalSpending(ctx context.Context, args map[string]string) (string, error) {
	year := args["year"]

	results, err := t.api.QueryBudget(ctx, year, nil)
	if err != nil {
		if err == ssb.ErrNoData {
			return "", fmt.Errorf("no data available for %s", year)
		}
		return "", fmt.Errorf("calculating total spending: %w", err)
	}

	var totalAnnual float64
	for _, r := range results {
		totalAnnual += r.AnnualNOK
	}

	return fmt.Sprintf(
		"Norwegian households spend an average of %s NOK per month (%s NOK per year) "+
			"across %d main spending categories. Source: Statistics Norway Household Budget Survey %s, Table 10235",
		formatNOK(totalAnnual/12), formatNOK(totalAnnual), len(results), year,
	), nil
}

// formatNOK renders an amount rounded to whole kroner with thousands
// separators, e.g. 11332.4 -> "11,332".
func formatNOK(v float64) string {
	n := int64(math.Round(v))
	neg := n < 0
	if neg {
		n = -n
	}

	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
