package service

import (
	"context"

	"malaria_clinic/internal/models"
	"malaria_clinic/internal/repository"
)

type DashboardService struct {
	patients repository.PatientRepo
	doctors  repository.DoctorRepo
}

func NewDashboardService(patients repository.PatientRepo, doctors repository.DoctorRepo) *DashboardService {
	return &DashboardService{patients: patients, doctors: doctors}
}

// Stats returns the current patient and doctor counts.
func (s *DashboardService) Stats(ctx context.Context) (models.DashboardStats, error) {
	p, err := s.patients.Count(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}
	d, err := s.doctors.Count(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}
	return models.DashboardStats{Patients: p, Doctors: d}, nil
}
