package repository

import (
	"context"
	"database/sql"
	"fmt"

	"malaria_clinic/internal/models"
)

type DoctorSQLite struct {
	db *sql.DB
}

func NewDoctorSQLite(db *sql.DB) *DoctorSQLite { return &DoctorSQLite{db: db} }

var _ DoctorRepo = (*DoctorSQLite)(nil)

const (
	insertDoctorSQL  = `INSERT INTO Doctors (fname, lname, insurance, phone) VALUES (?, ?, ?, ?)`
	selectDoctorsSQL = `SELECT DoctorID, fname, lname, insurance, phone FROM Doctors ORDER BY DoctorID ASC`
	deleteDoctorSQL  = `DELETE FROM Doctors WHERE DoctorID = ?`
	countDoctorsSQL  = `SELECT COUNT(*) FROM Doctors`
)

func (r *DoctorSQLite) Create(ctx context.Context, d models.Doctor) (int, error) {
	res, err := r.db.ExecContext(ctx, insertDoctorSQL, d.FirstName, d.LastName, d.Insurance, d.Phone)
	if err != nil {
		return 0, fmt.Errorf("insert doctor: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for doctor: %w", err)
	}
	return int(id), nil
}

func (r *DoctorSQLite) List(ctx context.Context) ([]models.Doctor, error) {
	rows, err := r.db.QueryContext(ctx, selectDoctorsSQL)
	if err != nil {
		return nil, fmt.Errorf("select doctors: %w", err)
	}
	defer rows.Close()

	out := make([]models.Doctor, 0, 16)
	for rows.Next() {
		var (
			d                              models.Doctor
			fname, lname, insurance, phone sql.NullString
		)
		if err := rows.Scan(&d.ID, &fname, &lname, &insurance, &phone); err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		d.FirstName = fname.String
		d.LastName = lname.String
		d.Insurance = insurance.String
		d.Phone = phone.String
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate doctors: %w", err)
	}
	return out, nil
}

// Delete removes a doctor by id. A missing id is not an error.
func (r *DoctorSQLite) Delete(ctx context.Context, id int) error {
	if _, err := r.db.ExecContext(ctx, deleteDoctorSQL, id); err != nil {
		return fmt.Errorf("delete doctor %d: %w", id, err)
	}
	return nil
}

func (r *DoctorSQLite) Count(ctx context.Context) (int, error) {
	n, err := countRows(ctx, r.db, countDoctorsSQL)
	if err != nil {
		return 0, fmt.Errorf("count doctors: %w", err)
	}
	return n, nil
}
