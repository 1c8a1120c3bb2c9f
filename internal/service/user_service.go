package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/uni-dcs/records-api/internal/dto"
	"github.com/uni-dcs/records-api/internal/models"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
)

type userStore interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, id string, active bool) error
}

// UserService provisions and manages accounts for every role.
type UserService struct {
	repo        userStore
	departments courseDepartmentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewUserService builds a UserService with sane defaults.
func NewUserService(repo userStore, departments courseDepartmentReader, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, departments: departments, validator: validate, logger: logger}
}

// List returns account details matching the filter.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.UserDetail, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	details := make([]models.UserDetail, 0, len(users))
	for i := range users {
		details = append(details, users[i].Detail())
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return details, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one account.
func (s *UserService) Get(ctx context.Context, id string) (*models.UserDetail, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	detail := user.Detail()
	return &detail, nil
}

// Create provisions an account. Accounts are always created by an
// admin; there is no self-service signup.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest) (*models.UserDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := s.validateProfile(ctx, req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         req.Role,
		Active:       true,
	}
	switch req.Role {
	case models.RoleStudent:
		matricNo := req.MatricNo
		departmentID := req.DepartmentID
		level := req.Level
		user.MatricNo = &matricNo
		user.DepartmentID = &departmentID
		user.Level = &level
		if req.Program != "" {
			program := req.Program
			user.Program = &program
		}
	case models.RoleLecturer:
		staffID := req.StaffID
		departmentID := req.DepartmentID
		user.StaffID = &staffID
		user.DepartmentID = &departmentID
		if req.Rank != "" {
			rank := req.Rank
			user.Rank = &rank
		}
		if req.Specialization != "" {
			specialization := req.Specialization
			user.Specialization = &specialization
		}
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email, matric number or staff id already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	detail := user.Detail()
	return &detail, nil
}

// Update modifies mutable account attributes. Role and matric number
// are immutable after creation.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest) (*models.UserDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.DepartmentID != nil {
		if _, err := s.departments.FindByID(ctx, *req.DepartmentID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
		}
		user.DepartmentID = req.DepartmentID
	}
	if req.Level != nil {
		user.Level = req.Level
	}
	if req.Program != nil {
		user.Program = req.Program
	}
	if req.Rank != nil {
		user.Rank = req.Rank
	}
	if req.Specialization != nil {
		user.Specialization = req.Specialization
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	detail := user.Detail()
	return &detail, nil
}

// Deactivate disables an account without deleting its records.
func (s *UserService) Deactivate(ctx context.Context, id string) error {
	return s.setActive(ctx, id, false)
}

// Activate re-enables a disabled account.
func (s *UserService) Activate(ctx context.Context, id string) error {
	return s.setActive(ctx, id, true)
}

func (s *UserService) setActive(ctx context.Context, id string, active bool) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update account state")
	}
	s.logger.Info("account state changed", zap.String("user_id", id), zap.Bool("active", active))
	return nil
}

func (s *UserService) validateProfile(ctx context.Context, req dto.CreateUserRequest) error {
	switch req.Role {
	case models.RoleStudent:
		if req.MatricNo == "" || req.DepartmentID == "" || req.Level == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "students need matric_no, department_id and level")
		}
	case models.RoleLecturer:
		if req.StaffID == "" || req.DepartmentID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "lecturers need staff_id and department_id")
		}
	case models.RoleAdmin:
		return nil
	}
	if _, err := s.departments.FindByID(ctx, req.DepartmentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return nil
}
