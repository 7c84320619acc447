package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// UserCategoryTotal is one row of the detailed breakdown.
type UserCategoryTotal struct {
	User     Author
	Category Category
	Amount   decimal.Decimal
}

// CategoryTotal is an amount aggregated by category name.
type CategoryTotal struct {
	Category Category
	Amount   decimal.Decimal
}

// SumByUserCategory groups expenses by (user id, category). The display name
// of each group is the one carried by the most recent expense in it.
// Rows come back ordered by user name, then category.
func SumByUserCategory(expenses []Expense) []UserCategoryTotal {
	type key struct {
		user     int64
		category Category
	}
	idx := make(map[key]int)
	latest := make(map[key]int64)
	var out []UserCategoryTotal
	for _, e := range expenses {
		k := key{e.Author.ID, e.Category}
		i, ok := idx[k]
		if !ok {
			idx[k] = len(out)
			latest[k] = e.CreatedAt.Unix()
			out = append(out, UserCategoryTotal{User: e.Author, Category: e.Category, Amount: e.Amount})
			continue
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
		if ts := e.CreatedAt.Unix(); ts >= latest[k] {
			latest[k] = ts
			out[i].User.Name = e.Author.Name
		}
	}
	SortUserCategoryTotals(out)
	return out
}

// SumByCategory groups expenses by category, ordered by category name.
func SumByCategory(expenses []Expense) []CategoryTotal {
	idx := make(map[Category]int)
	var out []CategoryTotal
	for _, e := range expenses {
		if i, ok := idx[e.Category]; ok {
			out[i].Amount = out[i].Amount.Add(e.Amount)
			continue
		}
		idx[e.Category] = len(out)
		out = append(out, CategoryTotal{Category: e.Category, Amount: e.Amount})
	}
	SortCategoryTotals(out)
	return out
}

func SortUserCategoryTotals(rows []UserCategoryTotal) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].User.Name != rows[j].User.Name {
			return rows[i].User.Name < rows[j].User.Name
		}
		if rows[i].User.ID != rows[j].User.ID {
			return rows[i].User.ID < rows[j].User.ID
		}
		return rows[i].Category < rows[j].Category
	})
}

func SortCategoryTotals(rows []CategoryTotal) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Category < rows[j].Category
	})
}

// GrandTotal sums category totals.
func GrandTotal(rows []CategoryTotal) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	return total
}

// DetailedTotal sums the detailed breakdown. It must equal GrandTotal over
// the same period.
func DetailedTotal(rows []UserCategoryTotal) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	return total
}
