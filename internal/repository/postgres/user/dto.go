package user

import (
	"time"

	"github.com/uptrace/bun"
)

type SignInRequest struct {
	EmployeeID string `json:"employee_id" form:"employee_id"`
	Password   string `json:"password" form:"password"`
}

type CreateRequest struct {
	EmployeeID *string  `json:"employee_id" form:"employee_id"`
	Password   *string  `json:"password"    form:"password"`
	Role       *string  `json:"role"        form:"role"`
	FullName   *string  `json:"full_name"   form:"full_name"`
	Latitude   *float64 `json:"latitude"    form:"latitude"`
	Longitude  *float64 `json:"longitude"   form:"longitude"`
}

type CreateResponse struct {
	bun.BaseModel `bun:"table:users"`

	ID         int       `json:"id"          bun:"-"`
	EmployeeID *string   `json:"employee_id" bun:"employee_id"`
	Password   *string   `json:"-"           bun:"password"`
	Role       *string   `json:"role"        bun:"role"`
	FullName   *string   `json:"full_name"   bun:"full_name"`
	Latitude   *float64  `json:"latitude"    bun:"latitude"`
	Longitude  *float64  `json:"longitude"   bun:"longitude"`
	CreatedAt  time.Time `json:"-"           bun:"created_at"`
}

// SetLocationRequest carries pointers so that 0,0 is a valid location and an
// omitted coordinate is not.
type SetLocationRequest struct {
	Latitude  *float64 `json:"latitude"  form:"latitude"`
	Longitude *float64 `json:"longitude" form:"longitude"`
}
