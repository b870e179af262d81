package types

import "strings"

// Submission is one reimbursement request as handed over by the form.
// It only lives for the duration of the request.
type Submission struct {
	RequesterName  string `form:"requester_name" yaml:"requester_name"`
	RequesterEmail string `form:"requester_email" yaml:"requester_email"`

	EmployeeName string `form:"employee_name" yaml:"employee_name"`
	EmployeeCPF  string `form:"employee_cpf" yaml:"employee_cpf"`
	Level        string `form:"level" yaml:"level"`
	SupplierCode string `form:"supplier_code" yaml:"supplier_code"`

	Expenses []ExpenseRow `form:"expenses" yaml:"expenses"`
	Mileage  []MileageRow `form:"mileage" yaml:"mileage"`

	Destination string `form:"destination" yaml:"destination"`

	Receipts     []Receipt `form:"-" yaml:"-"`
	ReceiptPaths []string  `form:"-" yaml:"receipts"`
}

type ExpenseRow struct {
	Date          string `form:"date" yaml:"date"`
	LedgerAccount string `form:"ledger_account" yaml:"ledger_account"`
	CostCenter    string `form:"cost_center" yaml:"cost_center"`
	Justification string `form:"justification" yaml:"justification"`
	Quantity      string `form:"quantity" yaml:"quantity"`
	Amount        string `form:"amount" yaml:"amount"`
}

func (r ExpenseRow) IsBlank() bool {
	return blank(r.Date, r.LedgerAccount, r.CostCenter, r.Justification, r.Quantity, r.Amount)
}

type MileageRow struct {
	Date          string `form:"date" yaml:"date"`
	LedgerAccount string `form:"ledger_account" yaml:"ledger_account"`
	CostCenter    string `form:"cost_center" yaml:"cost_center"`
	Route         string `form:"route" yaml:"route"`
	Distance      string `form:"distance" yaml:"distance"`
	Rate          string `form:"rate" yaml:"rate"`
	Amount        string `form:"amount" yaml:"amount"`
}

func (r MileageRow) IsBlank() bool {
	return blank(r.Date, r.LedgerAccount, r.CostCenter, r.Route, r.Distance, r.Rate, r.Amount)
}

// Normalize trims the header fields and drops the blank rows after the last filled one.
// Blank rows between filled ones are kept so every line stays on its template row.
func (s *Submission) Normalize() {
	for _, f := range []*string{
		&s.RequesterName, &s.RequesterEmail, &s.EmployeeName, &s.EmployeeCPF,
		&s.Level, &s.SupplierCode, &s.Destination,
	} {
		*f = strings.TrimSpace(*f)
	}

	s.Expenses = trimTrailing(s.Expenses, ExpenseRow.IsBlank)
	s.Mileage = trimTrailing(s.Mileage, MileageRow.IsBlank)
}

func trimTrailing[T any](rows []T, isBlank func(T) bool) []T {
	n := len(rows)
	for n > 0 && isBlank(rows[n-1]) {
		n--
	}
	return rows[:n]
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
