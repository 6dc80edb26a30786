package domain

// An ImportOutcome is the result of importing one spreadsheet row.
// Row is the 1-based data row (the header row is not counted).
type ImportOutcome struct {
	Row    int
	ID     string
	Errors []FieldError
}

func (o ImportOutcome) OK() bool {
	return len(o.Errors) == 0
}

type ImportReport struct {
	Outcomes []ImportOutcome
	Imported int
	Failed   int
}
