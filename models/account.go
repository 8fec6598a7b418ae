package models

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type Account struct {
	AccountID    uint              `json:"account_id" gorm:"primaryKey;autoIncrement"`
	Email        string            `json:"email" gorm:"type:varchar(120);uniqueIndex;not null"`
	DisplayName  string            `json:"display_name" gorm:"type:varchar(120);not null"`
	PasswordHash string            `json:"-" gorm:"type:varchar(255);not null"`
	Active       bool              `json:"active" gorm:"not null;default:true"`
	CreatedAt    time.Time         `json:"created_at"`
	Roles        []PermissionGroup `json:"-" gorm:"many2many:account_group_link;foreignKey:AccountID;joinForeignKey:AccountID;references:GroupID;joinReferences:GroupID"`
}

func (Account) TableName() string {
	return "accounts"
}

// PermissionGroup is a named role ("admin", "user") attached to accounts.
type PermissionGroup struct {
	GroupID     uint   `json:"group_id" gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name" gorm:"type:varchar(50);uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:varchar(200)"`
}

func (PermissionGroup) TableName() string {
	return "permission_groups"
}

// HasRole reports whether the account carries the named role.
func (a *Account) HasRole(name string) bool {
	for _, r := range a.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

func (a *Account) RoleNames() []string {
	names := make([]string, 0, len(a.Roles))
	for _, r := range a.Roles {
		names = append(names, r.Name)
	}
	return names
}

type AccountResponse struct {
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Active   bool     `json:"active"`
	Roles    []string `json:"roles"`
}

func (a *Account) ToResponse() AccountResponse {
	return AccountResponse{
		ID:       a.AccountID,
		Username: a.DisplayName,
		Email:    a.Email,
		Active:   a.Active,
		Roles:    a.RoleNames(),
	}
}

// AccountBookingsResponse is one row of the admin account listing.
type AccountBookingsResponse struct {
	ID       uint                `json:"id"`
	Username string              `json:"username"`
	Email    string              `json:"email"`
	Active   bool                `json:"active"`
	Roles    []string            `json:"roles"`
	Bookings []BookingAdminEntry `json:"bookings"`
}
