package user

import (
	"context"

	"timeclock/backend/internal/entity"
	"timeclock/backend/internal/repository/postgres/user"
)

type User interface {
	Create(ctx context.Context, request user.CreateRequest) (user.CreateResponse, error)
	SetLocation(ctx context.Context, id int, request user.SetLocationRequest) (entity.User, error)
}
