package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/unibus-go-api/internal/models"
)

// StudentRepository reads student profiles for scan enrichment. Profiles are
// owned by the registration service; this side never writes them.
type StudentRepository interface {
	FindByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).First(&student, "student_id = ?", studentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).First(&student, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &student, nil
}
