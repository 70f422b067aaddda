package models

// User is a household account. Admins may use the climate API.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username" validate:"required,min=3,max=64"`
	PasswordHash string `json:"-" validate:"required"`
	Admin        bool   `json:"admin"`
}
