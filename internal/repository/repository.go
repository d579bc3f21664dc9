package repository

import (
	"context"
	"database/sql"

	"malaria_clinic/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Count(ctx context.Context) (int, error)
	UpdatePassword(ctx context.Context, id int, hash string) error
}

type PatientRepo interface {
	Create(ctx context.Context, p models.Patient) (int, error)
	List(ctx context.Context) ([]models.Patient, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

type DoctorRepo interface {
	Create(ctx context.Context, d models.Doctor) (int, error)
	List(ctx context.Context) ([]models.Doctor, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

type Repository struct {
	Auth     Authorization
	Patients PatientRepo
	Doctors  DoctorRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Auth:     NewUserRepository(db),
		Patients: NewPatientSQLite(db),
		Doctors:  NewDoctorSQLite(db),
	}
}

// countRows runs a single-value COUNT query.
func countRows(ctx context.Context, db *sql.DB, query string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
