package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User models a registered identity.
//
// Password holds the plaintext only between construction and the create use
// case; every persisted User carries the bcrypt hash instead.
type User struct {
	ID               int64
	FirstName        string
	LastName         string
	Email            string
	Birthdate        time.Time
	IdentityDocument string
	PhoneNumber      string
	BaseSalary       *decimal.Decimal
	Address          string
	RoleID           int64
	Active           bool
	Password         string `json:"-"`
}

// NewUser builds an unsaved, active user. ID stays zero until the store assigns one.
func NewUser(
	firstName, lastName string,
	birthdate time.Time,
	address, phoneNumber, email string,
	baseSalary *decimal.Decimal,
	identityDocument string,
	roleID int64,
	password string,
) *User {
	return &User{
		FirstName:        firstName,
		LastName:         lastName,
		Birthdate:        birthdate,
		Address:          address,
		PhoneNumber:      phoneNumber,
		Email:            email,
		BaseSalary:       baseSalary,
		IdentityDocument: identityDocument,
		RoleID:           roleID,
		Active:           true,
		Password:         password,
	}
}

// Role groups authorities. Roles are pre-provisioned; the service only reads them.
type Role struct {
	ID          int64
	Name        string
	Description string
}

// DefaultRoles are the roles every environment starts with.
var DefaultRoles = []Role{
	{ID: 1, Name: "CLIENTE", Description: "Customer applying for credit"},
	{ID: 2, Name: "ASESOR", Description: "Credit advisor"},
	{ID: 3, Name: "ADMIN", Description: "Administrator"},
}
