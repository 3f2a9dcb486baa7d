package model

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Present reports whether the record identifies someone; any of the
// identifying fields is enough.
func (u User) Present() bool {
	return u.ID != "" || u.Email != "" || u.Username != ""
}
