package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/zaqqye/questionnaire_backend/internal/apperr"
	"github.com/zaqqye/questionnaire_backend/internal/models"
	"github.com/zaqqye/questionnaire_backend/internal/utils"
)

type GormStudentRepository struct {
	DB *gorm.DB
}

func (r *GormStudentRepository) Create(ctx context.Context, carnet, password string) (*models.Student, error) {
	if carnet == "" || password == "" {
		return nil, errCredentialsRequired
	}
	db := r.DB.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Student{}).Where("carnet = ?", carnet).Count(&count).Error; err != nil {
		return nil, apperr.Internal("failed to look up carnet", err)
	}
	if count > 0 {
		return nil, errCarnetTaken
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}
	st := models.Student{Carnet: carnet, PasswordHash: hashed, Role: models.RoleStudent}
	if err := db.Create(&st).Error; err != nil {
		// Lost a race with a concurrent registration of the same carnet.
		if isUniqueViolation(err) {
			return nil, errCarnetTaken
		}
		return nil, apperr.Internal("failed to create student", err)
	}
	return &st, nil
}

func (r *GormStudentRepository) FindByCarnet(ctx context.Context, carnet string) (*models.Student, error) {
	var st models.Student
	if err := r.DB.WithContext(ctx).Where("carnet = ?", carnet).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errStudentNotFound
		}
		return nil, apperr.Internal("failed to load student", err)
	}
	return &st, nil
}

func (r *GormStudentRepository) ValidatePassword(ctx context.Context, carnet, password string) (bool, error) {
	st, err := r.FindByCarnet(ctx, carnet)
	return checkCredentials(st, err, password)
}

func (r *GormStudentRepository) UpdatePassword(ctx context.Context, carnet, newPassword string) (bool, error) {
	if newPassword == "" {
		return false, errCredentialsRequired
	}
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return false, apperr.Internal("failed to hash password", err)
	}
	res := r.DB.WithContext(ctx).Model(&models.Student{}).
		Where("carnet = ?", carnet).
		Updates(map[string]interface{}{
			"password":   hashed,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, apperr.Internal("failed to update password", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *GormStudentRepository) SetRole(ctx context.Context, carnet, role string) error {
	if !models.IsValidRole(role) {
		return errInvalidRole
	}
	res := r.DB.WithContext(ctx).Model(&models.Student{}).Where("carnet = ?", carnet).Update("role", role)
	if res.Error != nil {
		return apperr.Internal("failed to update role", res.Error)
	}
	if res.RowsAffected == 0 {
		return errStudentNotFound
	}
	return nil
}

// checkCredentials answers false for unknown carnets and wrong passwords
// alike, spending bcrypt time in both cases.
func checkCredentials(st *models.Student, lookupErr error, password string) (bool, error) {
	if lookupErr != nil {
		if errors.Is(lookupErr, apperr.ErrNotFound) {
			return utils.CheckPasswordAgainstNothing(password), nil
		}
		return false, lookupErr
	}
	return utils.CheckPassword(st.PasswordHash, password), nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
