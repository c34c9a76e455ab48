package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"user-registry/internal/usecase/user"
)

// PlaceholderPhotoURL is shown for users that did not upload a photo.
const PlaceholderPhotoURL = "https://www.gravatar.com/avatar/00000000000000000000000000000000?d=mp&f=y"

// UploadsPrefix is the URL path uploaded photos are served under.
const UploadsPrefix = "/uploads/"

//go:embed templates/*.html
var templateFS embed.FS

var functions = template.FuncMap{
	"photoURL": PhotoURL,
}

var usersTemplate = template.Must(
	template.New("users.html").Funcs(functions).ParseFS(templateFS, "templates/users.html"),
)

// usersPage is the data handed to users.html.
type usersPage struct {
	Users []user.User
}

// PhotoURL returns the URL of a stored photo, or the placeholder when photo is nil.
func PhotoURL(photo *string) string {
	if photo == nil || *photo == "" {
		return PlaceholderPhotoURL
	}
	return UploadsPrefix + *photo
}

// Users renders the listing page, one card per user in the given order.
// Names and emails are HTML-escaped.
func Users(users []user.User) (string, error) {
	buf := new(bytes.Buffer)
	if err := usersTemplate.Execute(buf, usersPage{Users: users}); err != nil {
		return "", fmt.Errorf("failed to render users page: %w", err)
	}
	return buf.String(), nil
}
