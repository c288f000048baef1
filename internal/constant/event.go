package constant

const (
	EventReportCreated  = "report.created"
	EventReportResolved = "report.resolved"
)
