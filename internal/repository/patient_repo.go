package repository

import (
	"context"
	"database/sql"
	"fmt"

	"malaria_clinic/internal/models"
)

type PatientSQLite struct {
	db *sql.DB
}

func NewPatientSQLite(db *sql.DB) *PatientSQLite { return &PatientSQLite{db: db} }

var _ PatientRepo = (*PatientSQLite)(nil)

const (
	insertPatientSQL  = `INSERT INTO patients (fname, lname, insurance, phone, result) VALUES (?, ?, ?, ?, ?)`
	selectPatientsSQL = `SELECT patientid, fname, lname, insurance, phone, result FROM patients ORDER BY patientid ASC`
	deletePatientSQL  = `DELETE FROM patients WHERE patientid = ?`
	countPatientsSQL  = `SELECT COUNT(*) FROM patients`
)

// Create inserts a patient and returns the new patientid.
func (r *PatientSQLite) Create(ctx context.Context, p models.Patient) (int, error) {
	res, err := r.db.ExecContext(ctx, insertPatientSQL, p.FirstName, p.LastName, p.Insurance, p.Phone, p.Result)
	if err != nil {
		return 0, fmt.Errorf("insert patient: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for patient: %w", err)
	}
	return int(id), nil
}

// List returns every patient ordered by id.
func (r *PatientSQLite) List(ctx context.Context) ([]models.Patient, error) {
	rows, err := r.db.QueryContext(ctx, selectPatientsSQL)
	if err != nil {
		return nil, fmt.Errorf("select patients: %w", err)
	}
	defer rows.Close()

	out := make([]models.Patient, 0, 32)
	for rows.Next() {
		var (
			p                                   models.Patient
			fname, lname, insurance, phone, res sql.NullString
		)
		if err := rows.Scan(&p.ID, &fname, &lname, &insurance, &phone, &res); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		p.FirstName = fname.String
		p.LastName = lname.String
		p.Insurance = insurance.String
		p.Phone = phone.String
		p.Result = res.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return out, nil
}

// Delete removes a patient by id. A missing id is not an error.
func (r *PatientSQLite) Delete(ctx context.Context, id int) error {
	if _, err := r.db.ExecContext(ctx, deletePatientSQL, id); err != nil {
		return fmt.Errorf("delete patient %d: %w", id, err)
	}
	return nil
}

func (r *PatientSQLite) Count(ctx context.Context) (int, error) {
	n, err := countRows(ctx, r.db, countPatientsSQL)
	if err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}
