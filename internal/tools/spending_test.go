package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/mnordvik/statbot/internal/agent"
	"github.com/mnordvik/statbot/internal/ssb"
)

// fakeBudget serves canned spending figures keyed by category code.
type fakeBudget struct {
	data map[string]ssb.CategorySpending
	err  error
}

func (f *fakeBudget) QueryBudget(ctx context.Context, year string, codes []string) ([]ssb.CategorySpending, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(codes) == 0 {
		out := make([]ssb.CategorySpending, 0, len(f.data))
		for _, c := range f.data {
			out = append(out, c)
		}
		if len(out) == 0 {
			return nil, ssb.ErrNoData
		}
		return out, nil
	}
	var out []ssb.CategorySpending
	for _, code := range codes {
		if c, ok := f.data[code]; ok {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, ssb.ErrNoData
	}
	return out, nil
}

func newFakeBudget() *fakeBudget {
	return &fakeBudget{data: map[string]ssb.CategorySpending{
		"01": {Code: "01", Label: "Food and non-alcoholic beverages", AnnualNOK: 54000, Year: "2012"},
		"04": {Code: "04", Label: "Housing, water, electricity, gas and other fuels", AnnualNOK: 135984, Year: "2012"},
	}}
}

func newToolset(f *fakeBudget) *Toolset {
	return NewToolset(f, zap.NewNop())
}

func TestGetSpending(t *testing.T) {
	ts := newToolset(newFakeBudget())

	out, err := ts.getSpending(context.Background(), map[string]string{
		"category": "housing",
		"year":     "2012",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "11,332 NOK per month") {
		t.Errorf("expected monthly amount, got %q", out)
	}
	if !strings.Contains(out, "135,984 NOK per year") {
		t.Errorf("expected annual amount, got %q", out)
	}
	if !strings.Contains(out, "Housing, water, electricity") {
		t.Errorf("expected the SSB category label, got %q", out)
	}
	if !strings.Contains(out, "Table 10235") {
		t.Errorf("expected source attribution, got %q", out)
	}
}

func TestGetSpendingUnknownCategory(t *testing.T) {
	ts := newToolset(newFakeBudget())

	_, err := ts.getSpending(context.Background(), map[string]string{
		"category": "spaceships",
		"year":     "2012",
	})
	if err == nil {
		t.Fatal("expected error for unknown category")
	}
	if !strings.Contains(err.Error(), "not recognized") {
		t.Errorf("expected recognition error, got %v", err)
	}
	if !strings.Contains(err.Error(), "housing") {
		t.Errorf("expected available categories listed, got %v", err)
	}
}

func TestGetSpendingNoData(t *testing.T) {
	ts := newToolset(&fakeBudget{data: map[string]ssb.CategorySpending{}})

	_, err := ts.getSpending(context.Background(), map[string]string{
		"category": "housing",
		"year":     "1850",
	})
	if err == nil || !strings.Contains(err.Error(), "no data") {
		t.Errorf("expected no-data error, got %v", err)
	}
}

func TestCompareSpending(t *testing.T) {
	ts := newToolset(newFakeBudget())

	out, err := ts.compareSpending(context.Background(), map[string]string{
		"category1": "food",
		"category2": "housing",
		"year":      "2012",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Housing (11,332/month) is larger than food (4,500/month) and must be
	// presented first regardless of argument order.
	if !strings.HasPrefix(out, "Housing") {
		t.Errorf("expected larger category first, got %q", out)
	}
	if !strings.Contains(out, "2.5x more") {
		t.Errorf("expected ratio 2.5x, got %q", out)
	}
}

func TestCompareSpendingDefaultsSecondCategory(t *testing.T) {
	reg := agent.NewRegistry()
	if err := newToolset(newFakeBudget()).Register(reg, "2012"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One argument compares against food.
	inv := agent.NewInvoker(reg, 0, zap.NewNop())
	obs := inv.Observe(context.Background(), agent.Action{Tool: "compare_spending", Args: []string{"housing"}})
	if strings.HasPrefix(obs, "Error:") {
		t.Fatalf("expected success observation, got %q", obs)
	}
	if !strings.Contains(obs, "Food and non-alcoholic beverages") {
		t.Errorf("expected food as the default comparison, got %q", obs)
	}
	if !strings.Contains(obs, "2.5x more") {
		t.Errorf("expected ratio against food, got %q", obs)
	}
}

func TestCompareSpendingSameCategory(t *testing.T) {
	ts := newToolset(newFakeBudget())

	_, err := ts.compareSpending(context.Background(), map[string]string{
		"category1": "housing",
		"category2": "home",
		"year":      "2012",
	})
	if err == nil || !strings.Contains(err.Error(), "same spending category") {
		t.Errorf("expected same-category error, got %v", err)
	}
}

func TestGetTotalSpending(t *testing.T) {
	ts := newToolset(newFakeBudget())

	out, err := ts.getTotalSpending(context.Background(), map[string]string{"year": "2012"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "189,984 NOK per year") {
		t.Errorf("expected summed annual total, got %q", out)
	}
	if !strings.Contains(out, "across 2 main spending categories") {
		t.Errorf("expected category count, got %q", out)
	}
}

func TestToolErrorPropagates(t *testing.T) {
	ts := newToolset(&fakeBudget{err: errors.New("backend unavailable")})

	_, err := ts.getTotalSpending(context.Background(), map[string]string{"year": "2012"})
	if err == nil || !strings.Contains(err.Error(), "backend unavailable") {
		t.Errorf("expected backend error wrapped, got %v", err)
	}
}

func TestRegisterWiresAliases(t *testing.T) {
	reg := agent.NewRegistry()
	if err := newToolset(newFakeBudget()).Register(reg, "2012"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{
		"get_spending", "get_average_spending_by_category",
		"compare_spending", "compare_spending_categories",
		"get_total_spending", "get_total_household_spending",
	} {
		if _, ok := reg.Resolve(name); !ok {
			t.Errorf("expected %s to resolve", name)
		}
	}

	// End to end through the invoker: year must default.
	inv := agent.NewInvoker(reg, 0, zap.NewNop())
	obs := inv.Observe(context.Background(), agent.Action{Tool: "get_spending", Args: []string{"housing"}})
	if strings.HasPrefix(obs, "Error:") {
		t.Fatalf("expected success observation, got %q", obs)
	}
	if !strings.Contains(obs, "11,332") {
		t.Errorf("expected numeric amount in observation, got %q", obs)
	}
}

func TestFormatNOK(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{11332.4, "11,332"},
		{135984, "135,984"},
		{1234567, "1,234,567"},
	}
	for _, tc := range cases {
		if got := formatNOK(tc.in); got != tc.want {
			t.Errorf("formatNOK(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
