package user

import "mime/multipart"

// CreateUserRequest represents the registration form.
// Name and Email are nil when the field was absent from the form, and Photo
// is nil when the form carried no file. Values are not checked here; the
// users table rejects a missing name or email.
type CreateUserRequest struct {
	Name  *string
	Email *string
	Photo *multipart.FileHeader
}

// CreateUserResponse represents the result of a registration.
type CreateUserResponse struct {
	ID    int64
	Photo *string
}

// ListUsersRequest represents a request for the full user listing.
// The listing is never paginated.
type ListUsersRequest struct{}

// ListUsersResponse holds every user, newest first.
type ListUsersResponse struct {
	Users []User
}

// User represents a user DTO (Data Transfer Object) for rendering.
type User struct {
	ID    int64
	Name  string
	Email string
	Photo *string
}
