package importrun

// CompletedEvent is published once per finished run, dry-run or commit.
type CompletedEvent struct {
	Result *Result
	Role   string
}
