package user

// User represents a registered user.
type User struct {
	ID    int64   // ID is assigned by the database on insert and never changes
	Name  string  // Name is the display name entered on the registration form
	Email string  // Email is unique across all users
	Photo *string // Photo is the stored filename of the uploaded photo, nil when none was sent
}

// Registration is a user as submitted on the form, before it has an ID.
// Name and Email are nil when the form did not carry the field at all; an
// empty string is a value and is stored as such.
type Registration struct {
	Name  *string
	Email *string
	Photo *string
}
