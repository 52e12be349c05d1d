package session

type Mode string

const (
	ModeBrowsing Mode = "browsing"
	ModeMenu     Mode = "menu"
	ModeEditing  Mode = "editing"
	ModeViewing  Mode = "viewing"
)

// CategoryOutcome is the result of a category switch or unlock attempt.
type CategoryOutcome string

const (
	CategorySwitched  CategoryOutcome = "switched"
	CategoryChallenge CategoryOutcome = "challenge"
	CategoryRejected  CategoryOutcome = "rejected"
)

const (
	PrintScheduled = "scheduled"
	PrintCompleted = "completed"
	PrintFailed    = "failed"
)
