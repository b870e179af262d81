package types

type BasePageData struct {
	Title string
}

type ReimbursementPageData struct {
	BasePageData
	Submission  *Submission
	Expenses    []ExpenseRow
	Mileage     []MileageRow
	Accept      string
	MaxUploadMB int64
	Error       string
}

type DownloadLink struct {
	Label string
	Name  string
	URL   string
}

type ResultPageData struct {
	BasePageData
	RequestID    string
	EmployeeName string
	Notices      []Notice
	Downloads    []DownloadLink
	Fatal        string
	RetentionMin uint
}
