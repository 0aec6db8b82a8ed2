package mysql

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/crediya/iam-service/internal/core/domain"
)

type userModel struct {
	ID               int64           `gorm:"column:id;primaryKey;autoIncrement"`
	FirstName        string          `gorm:"column:first_name;size:150;not null"`
	LastName         string          `gorm:"column:last_name;size:150;not null"`
	Email            string          `gorm:"column:email;size:180;not null;uniqueIndex:uk_users_email"`
	Birthdate        time.Time       `gorm:"column:birthdate;type:date"`
	IdentityDocument string          `gorm:"column:identity_document;size:50;index:idx_users_document"`
	PhoneNumber      string          `gorm:"column:phone_number;size:30"`
	BaseSalary       decimal.Decimal `gorm:"column:base_salary;type:decimal(12,2)"`
	Address          string          `gorm:"column:address;size:255"`
	RoleID           int64           `gorm:"column:role_id;not null;index:idx_users_role"`
	Active           bool            `gorm:"column:active;not null"`
	Password         string          `gorm:"column:password;size:255;not null"`
}

func (userModel) TableName() string { return "users" }

type roleModel struct {
	ID          int64  `gorm:"column:id;primaryKey"`
	Name        string `gorm:"column:name;size:50;not null;uniqueIndex:uk_roles_name"`
	Description string `gorm:"column:description;size:255"`
}

func (roleModel) TableName() string { return "roles" }

func toUserModel(u *domain.User) userModel {
	m := userModel{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		Birthdate:        u.Birthdate,
		IdentityDocument: u.IdentityDocument,
		PhoneNumber:      u.PhoneNumber,
		Address:          u.Address,
		RoleID:           u.RoleID,
		Active:           u.Active,
		Password:         u.Password,
	}
	if u.BaseSalary != nil {
		m.BaseSalary = *u.BaseSalary
	}
	return m
}

func (m userModel) toDomain() *domain.User {
	salary := m.BaseSalary
	return &domain.User{
		ID:               m.ID,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Email:            m.Email,
		Birthdate:        m.Birthdate,
		IdentityDocument: m.IdentityDocument,
		PhoneNumber:      m.PhoneNumber,
		BaseSalary:       &salary,
		Address:          m.Address,
		RoleID:           m.RoleID,
		Active:           m.Active,
		Password:         m.Password,
	}
}

func (m roleModel) toDomain() *domain.Role {
	return &domain.Role{ID: m.ID, Name: m.Name, Description: m.Description}
}
