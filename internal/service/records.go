package service

import (
	"context"

	"malaria_clinic/internal/models"
	"malaria_clinic/internal/repository"
)

type PatientService struct {
	repo repository.PatientRepo
}

func NewPatientService(repo repository.PatientRepo) *PatientService {
	return &PatientService{repo: repo}
}

func (s *PatientService) AddPatient(ctx context.Context, p models.Patient) (int, error) {
	p.ID = 0
	return s.repo.Create(ctx, p)
}

func (s *PatientService) ListPatients(ctx context.Context) ([]models.Patient, error) {
	return s.repo.List(ctx)
}

// DeletePatient is a no-op for ids that do not exist.
func (s *PatientService) DeletePatient(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

type DoctorService struct {
	repo repository.DoctorRepo
}

func NewDoctorService(repo repository.DoctorRepo) *DoctorService {
	return &DoctorService{repo: repo}
}

func (s *DoctorService) AddDoctor(ctx context.Context, d models.Doctor) (int, error) {
	d.ID = 0
	return s.repo.Create(ctx, d)
}

func (s *DoctorService) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	return s.repo.List(ctx)
}

func (s *DoctorService) DeleteDoctor(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
