package auth

import (
	"context"

	"timeclock/backend/internal/entity"
)

type User interface {
	GetByEmployeeID(ctx context.Context, employeeID string) (entity.User, error)
}

type TokenIssuer interface {
	GenerateToken(userID int, role string) (string, error)
}
