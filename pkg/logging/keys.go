package logging

const (
	// KeyError is the slog key used for error messages.
	KeyError = `err`

	// KeyDal is the slog key used for the data access layer name.
	KeyDal = `dal`

	// KeyState is the slog key used for state transitions.
	KeyState = `state`

	// KeyUser is the slog key used for discord user IDs.
	KeyUser = `user_id`

	// KeyTicket is the slog key used for ticket IDs.
	KeyTicket = `ticket_id`

	// KeyInteraction is the slog key used for the interaction correlation ID.
	KeyInteraction = `interaction_id`
)
