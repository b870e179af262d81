package spreadsheet

import "reembolsos/pkg/types"

// Fixed rows of the official form. Row i of a block always lands on FirstRow+i.
const (
	ExpenseFirstRow = 15
	MileageFirstRow = 39
)

// HeaderCells are the absolute coordinates of the single-value fields.
type HeaderCells struct {
	RequesterName  string
	RequesterEmail string
	EmployeeName   string
	EmployeeCPF    string
	Level          string
	SupplierCode   string
}

var DefaultHeader = HeaderCells{
	RequesterName:  "I5",
	RequesterEmail: "I6",
	EmployeeName:   "G10",
	EmployeeCPF:    "G11",
	Level:          "S10",
	SupplierCode:   "S11",
}

// Block is a reserved row range. Rows beyond Capacity are dropped.
type Block struct {
	FirstRow int
	Capacity int
}

func (b Block) LastRow() int {
	return b.FirstRow + b.Capacity - 1
}

type Layout struct {
	Sheet   string
	Header  HeaderCells
	Expense Block
	Mileage Block
}

func LayoutFromConfig(config *types.Config) Layout {
	return Layout{
		Sheet:   config.TemplateSheet,
		Header:  DefaultHeader,
		Expense: Block{FirstRow: ExpenseFirstRow, Capacity: config.RowCapacityExpense},
		Mileage: Block{FirstRow: MileageFirstRow, Capacity: config.RowCapacityMileage},
	}
}

// Columns of the general-expense block.
const (
	colExpenseDate          = "B"
	colExpenseLedger        = "D"
	colExpenseCostCenter    = "H"
	colExpenseJustification = "L"
	colExpenseQuantity      = "S"
	colExpenseAmount        = "T"
)

// Columns of the mileage block.
const (
	colMileageDate       = "B"
	colMileageLedger     = "D"
	colMileageCostCenter = "H"
	colMileageRoute      = "L"
	colMileageDistance   = "R"
	colMileageRate       = "S"
	colMileageAmount     = "T"
)
