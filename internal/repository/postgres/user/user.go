package user

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"timeclock/backend/foundation/web"
	"timeclock/backend/internal/auth"
	"timeclock/backend/internal/entity"
	"timeclock/backend/internal/pkg/repository/postgresql"
	"timeclock/backend/internal/repository/postgres"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// GetPerson returns the person with the id, or postgres.ErrNotFound.
func (r Repository) GetPerson(ctx context.Context, id int) (entity.User, error) {
	var detail entity.User

	err := r.NewSelect().Model(&detail).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.User{}, errors.Wrapf(postgres.ErrNotFound, "user %d", id)
	}
	if err != nil {
		return entity.User{}, errors.Wrap(err, "selecting user")
	}

	return detail, nil
}

func (r Repository) GetByEmployeeID(ctx context.Context, employeeID string) (entity.User, error) {
	var detail entity.User

	err := r.NewSelect().Model(&detail).Where("employee_id = ?", employeeID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.User{}, web.NewCodedError(errors.New("employee not found"), http.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		return entity.User{}, web.NewRequestError(errors.Wrap(err, "selecting user"), http.StatusInternalServerError)
	}

	return detail, nil
}

// Create registers a person. Only admins may call it.
func (r Repository) Create(ctx context.Context, request CreateRequest) (CreateResponse, error) {
	if _, err := r.CheckClaims(ctx, auth.RoleAdmin); err != nil {
		return CreateResponse{}, err
	}

	if err := r.ValidateStruct(&request, "EmployeeID", "Password", "FullName"); err != nil {
		return CreateResponse{}, err
	}

	role := auth.RoleEmployee
	if request.Role != nil {
		role = strings.ToUpper(strings.TrimSpace(*request.Role))
	}
	if role != auth.RoleEmployee && role != auth.RoleAdmin {
		return CreateResponse{}, web.NewCodedError(errors.New("incorrect role. role should be EMPLOYEE or ADMIN"), http.StatusBadRequest, "invalid_request")
	}

	if (request.Latitude == nil) != (request.Longitude == nil) {
		return CreateResponse{}, web.NewCodedError(errors.New("latitude and longitude must be given together"), http.StatusBadRequest, "invalid_request")
	}
	if request.Latitude != nil {
		p := entity.Point{Latitude: *request.Latitude, Longitude: *request.Longitude}
		if !p.Valid() {
			return CreateResponse{}, web.NewCodedError(errors.Errorf("invalid coordinates %s", p), http.StatusBadRequest, "invalid_request")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*request.Password), bcrypt.DefaultCost)
	if err != nil {
		return CreateResponse{}, web.NewRequestError(errors.Wrap(err, "hashing password"), http.StatusInternalServerError)
	}
	hashedPassword := string(hash)

	response := CreateResponse{
		EmployeeID: request.EmployeeID,
		Password:   &hashedPassword,
		Role:       &role,
		FullName:   request.FullName,
		Latitude:   request.Latitude,
		Longitude:  request.Longitude,
		CreatedAt:  time.Now(),
	}

	_, err = r.NewInsert().Model(&response).Returning("id").Exec(ctx, &response.ID)
	if postgresql.IsUniqueViolation(err) {
		return CreateResponse{}, web.NewCodedError(errors.Errorf("employee_id %q is used", *request.EmployeeID), http.StatusConflict, "already_exists")
	}
	if err != nil {
		return CreateResponse{}, web.NewRequestError(errors.Wrap(err, "creating user"), http.StatusInternalServerError)
	}

	response.Password = nil

	return response, nil
}

// SetLocation registers the reference location of a person. Only admins may
// call it.
func (r Repository) SetLocation(ctx context.Context, id int, request SetLocationRequest) (entity.User, error) {
	if _, err := r.CheckClaims(ctx, auth.RoleAdmin); err != nil {
		return entity.User{}, err
	}

	if err := r.ValidateStruct(&request, "Latitude", "Longitude"); err != nil {
		return entity.User{}, err
	}

	p := entity.Point{Latitude: *request.Latitude, Longitude: *request.Longitude}

	var detail entity.User
	res, err := r.NewUpdate().
		Model(&detail).
		Where("id = ?", id).
		Set("latitude = ?", p.Latitude).
		Set("longitude = ?", p.Longitude).
		Set("updated_at = ?", time.Now()).
		Returning("*").
		Exec(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.User{}, web.NewCodedError(errors.Wrapf(postgres.ErrNotFound, "user %d", id), http.StatusNotFound, "person_not_found")
	}
	if err != nil {
		return entity.User{}, web.NewRequestError(errors.Wrap(err, "updating user location"), http.StatusInternalServerError)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.User{}, web.NewCodedError(errors.Wrapf(postgres.ErrNotFound, "user %d", id), http.StatusNotFound, "person_not_found")
	}

	return detail, nil
}
