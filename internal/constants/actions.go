package constants

// Audit log actions.
const (
	Delete         = "DELETE"
	Seed           = "SEED"
	UpdatePrice    = "UPDATE_PRICE"
	CreateIndex    = "CREATE_INDEX"
	DropCollection = "DROP"
)

// PerformedBySystem marks audit entries written by the CLI rather than an
// authenticated API user.
const PerformedBySystem = "system"
