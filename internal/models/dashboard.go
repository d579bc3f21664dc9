package models

// DashboardStats holds the record counts shown on the dashboard.
type DashboardStats struct {
	Patients int `json:"patients"`
	Doctors  int `json:"doctors"`
}
