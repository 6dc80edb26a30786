package domain

import "time"

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// A Principal is the authenticated identity behind a request.
type Principal struct {
	UserID string
	Email  string
	Name   string
}

// SystemPrincipal owns records created by the service itself, e.g. seed data.
var SystemPrincipal = Principal{UserID: "system"}
