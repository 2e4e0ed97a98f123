package interfaces

// UserDirectory validates participant identifiers against known users.
type UserDirectory interface {
	// MissingUsers returns the subset of ids that do not resolve to a user.
	MissingUsers(userIDs []uint) ([]uint, error)
}
