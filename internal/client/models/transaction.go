package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Transaction is a single income or expense entry in an account scope.
type Transaction struct {
	ID        string          `json:"id"`
	AccountID string          `json:"accountId,omitempty"`
	Type      TransactionType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category,omitempty"`
	Note      string          `json:"note,omitempty"`
	Date      time.Time       `json:"date"`
	CreatedBy string          `json:"createdBy,omitempty"`
}

// Summary aggregates a scope's transactions.
type Summary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
	Count   int             `json:"count"`
}

// TransactionInput is the body of create and update calls.
type TransactionInput struct {
	Type     TransactionType `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category,omitempty"`
	Note     string          `json:"note,omitempty"`
	Date     time.Time       `json:"date"`
}

// DecodeTransactions normalizes a transaction-list payload.
func DecodeTransactions(raw json.RawMessage) []Transaction {
	items, _ := splitList(raw, "transactions")
	out := make([]Transaction, 0, len(items))
	for _, item := range items {
		if t, ok := DecodeTransaction(item); ok {
			out = append(out, t)
		}
	}
	return out
}

// DecodeTransaction normalizes one transaction object.
func DecodeTransaction(raw json.RawMessage) (Transaction, bool) {
	r, ok := unwrapObject(raw)
	if !ok {
		return Transaction{}, false
	}
	t := Transaction{
		ID:        r.str("id", "pk"),
		AccountID: r.str("accountId", "account_id", "account"),
		Type:      TransactionType(strings.ToLower(r.str("type", "transaction_type", "transactionType"))),
		Amount:    r.amount("amount"),
		Category:  r.name("category"),
		Note:      r.str("note", "notes", "description"),
		Date:      r.timestamp("date", "createdAt", "created_at"),
		CreatedBy: r.name("createdBy", "created_by", "user"),
	}
	return t, t.ID != ""
}

// DecodeSummary normalizes a summary payload. A missing balance is derived
// from income and expense.
func DecodeSummary(raw json.RawMessage) (Summary, bool) {
	r, ok := unwrapObject(raw)
	if !ok {
		return Summary{}, false
	}
	s := Summary{
		Income:  r.amount("income", "total_income", "totalIncome"),
		Expense: r.amount("expense", "total_expense", "totalExpense", "expenses"),
		Count:   int(r.amount("count", "transaction_count", "transactionCount").IntPart()),
	}
	if _, ok := r.field("balance", "net", "total_balance"); ok {
		s.Balance = r.amount("balance", "net", "total_balance")
	} else {
		s.Balance = s.Income.Sub(s.Expense)
	}
	return s, true
}

// Summarize computes a Summary from ts.
func Summarize(ts []Transaction) Summary {
	var s Summary
	for _, t := range ts {
		switch t.Type {
		case Income:
			s.Income = s.Income.Add(t.Amount)
		case Expense:
			s.Expense = s.Expense.Add(t.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	s.Count = len(ts)
	return s
}

// amount parses a decimal given as a JSON string or number. Unparseable
// values are zero.
func (r record) amount(keys ...string) decimal.Decimal {
	v, ok := r.field(keys...)
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(scalarString(v))
	if err != nil {
		return decimal.Zero
	}
	return d
}
