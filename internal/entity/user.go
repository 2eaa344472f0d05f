package entity

import (
	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	BasicEntity
	EmployeeID *string  `json:"employee_id" bun:"employee_id"`
	Password   *string  `json:"-"           bun:"password"`
	Role       *string  `json:"role"        bun:"role"`
	FullName   *string  `json:"full_name"   bun:"full_name"`
	Latitude   *float64 `json:"latitude"    bun:"latitude"`
	Longitude  *float64 `json:"longitude"   bun:"longitude"`
}

// Location returns the registered reference location, if one is set.
func (u User) Location() (Point, bool) {
	if u.Latitude == nil || u.Longitude == nil {
		return Point{}, false
	}
	return Point{Latitude: *u.Latitude, Longitude: *u.Longitude}, true
}

// RoleName returns the role or an empty string.
func (u User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return *u.Role
}
