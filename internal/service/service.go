package service

import (
	"context"
	"io"
	"time"

	"malaria_clinic/internal/classifier"
	"malaria_clinic/internal/models"
	"malaria_clinic/internal/repository"
)

type Authorization interface {
	CheckCredentials(ctx context.Context, username, password string) (bool, error)
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
	EnsureAdmin(ctx context.Context, username, password string) (bool, error)
}

// PatientRecords exposes add/list/delete for the patients table.
type PatientRecords interface {
	AddPatient(ctx context.Context, p models.Patient) (int, error)
	ListPatients(ctx context.Context) ([]models.Patient, error)
	DeletePatient(ctx context.Context, id int) error
}

// DoctorRecords exposes add/list/delete for the Doctors table.
type DoctorRecords interface {
	AddDoctor(ctx context.Context, d models.Doctor) (int, error)
	ListDoctors(ctx context.Context) ([]models.Doctor, error)
	DeleteDoctor(ctx context.Context, id int) error
}

// Dashboard exposes read-only record counts.
type Dashboard interface {
	Stats(ctx context.Context) (models.DashboardStats, error)
}

// Prediction runs the upload -> preprocess -> classify pipeline.
type Prediction interface {
	Predict(ctx context.Context, filename string, r io.Reader) (models.Prediction, error)
}

// Scorer is the pre-loaded classifier.
type Scorer interface {
	InputSize() (width, height int)
	Predict(ctx context.Context, in classifier.Tensor) (float64, error)
}

// UploadStore is the scratch directory.
type UploadStore interface {
	Save(name string, r io.Reader) (string, error)
	Remove(path string) error
}

type Service struct {
	Authorization
	PatientRecords
	DoctorRecords
	Dashboard
	Prediction
}

// Deps carries the non-repository collaborators and settings.
type Deps struct {
	Classifier Scorer
	Uploads    UploadStore
	Threshold  float64
	JWTSecret  string
	TokenTTL   time.Duration
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	return &Service{
		Authorization:  NewAuthService(repos.Auth, deps.JWTSecret, deps.TokenTTL),
		PatientRecords: NewPatientService(repos.Patients),
		DoctorRecords:  NewDoctorService(repos.Doctors),
		Dashboard:      NewDashboardService(repos.Patients, repos.Doctors),
		Prediction:     NewPredictionService(deps.Classifier, deps.Uploads, deps.Threshold),
	}
}
