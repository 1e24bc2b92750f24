package core

import "time"

// Item is a single inventory line: one product identified by its SKU.
type Item struct {
	ID          int64  `json:"id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
	Price       Money  `json:"price"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
}

// Clone returns a copy that shares no state with the receiver.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// Role is the coarse permission level chosen at registration.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// User is an account able to authenticate against the API.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsStaff      bool      `json:"is_staff"`
	IsSuperuser  bool      `json:"is_superuser"`
	DateJoined   time.Time `json:"date_joined"`
}

// ApplyRole sets the staff/superuser flags implied by role.
func (u *User) ApplyRole(role Role) {
	switch role {
	case RoleAdmin:
		u.IsStaff = true
		u.IsSuperuser = true
	case RoleStaff:
		u.IsStaff = true
		u.IsSuperuser = false
	}
}

// IsAdmin reports whether the user may perform write operations on items.
func (u *User) IsAdmin() bool {
	return u != nil && u.IsSuperuser
}
