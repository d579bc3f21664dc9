package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"malaria_clinic/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newPatientMock(t *testing.T) (*PatientSQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("mock expectations: %v", err)
		}
		_ = db.Close()
	})
	return NewPatientSQLite(db), mock
}

func TestPatientSQLite_Create(t *testing.T) {
	t.Parallel()
	repo, mock := newPatientMock(t)

	mock.ExpectExec(regexp.QuoteMeta(insertPatientSQL)).
		WithArgs("Ada", "Obi", "INS-1", "555-0100", "Infected").
		WillReturnResult(sqlmock.NewResult(12, 1))

	id, err := repo.Create(ctx(t), models.Patient{
		FirstName: "Ada", LastName: "Obi", Insurance: "INS-1", Phone: "555-0100", Result: "Infected",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 12 {
		t.Fatalf("want id 12, got %d", id)
	}
}

func TestPatientSQLite_Create_ExecError(t *testing.T) {
	t.Parallel()
	repo, mock := newPatientMock(t)

	mock.ExpectExec(regexp.QuoteMeta(insertPatientSQL)).
		WillReturnError(errors.New("disk full"))

	_, err := repo.Create(ctx(t), models.Patient{FirstName: "x"})
	if err == nil || !strings.Contains(err.Error(), "insert patient") {
		t.Fatalf("expected wrapped insert error, got %v", err)
	}
}

func TestPatientSQLite_List_NullColumns(t *testing.T) {
	t.Parallel()
	repo, mock := newPatientMock(t)

	rows := sqlmock.NewRows([]string{"patientid", "fname", "lname", "insurance", "phone", "result"}).
		AddRow(1, "Ada", "Obi", "INS-1", "555", "Uninfected").
		AddRow(2, "Bo", nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta(selectPatientsSQL)).WillReturnRows(rows)

	got, err := repo.List(ctx(t))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 patients, got %d", len(got))
	}
	if got[0].Result != "Uninfected" || got[0].Insurance != "INS-1" {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
	if got[1].LastName != "" || got[1].Result != "" {
		t.Fatalf("NULLs should map to empty strings: %+v", got[1])
	}
}

func TestPatientSQLite_List_ScanError(t *testing.T) {
	t.Parallel()
	repo, mock := newPatientMock(t)

	rows := sqlmock.NewRows([]string{"patientid", "fname", "lname", "insurance", "phone", "result"}).
		AddRow("not-an-int", "a", "b", "c", "d", "e")
	mock.ExpectQuery(regexp.QuoteMeta(selectPatientsSQL)).WillReturnRows(rows)

	if _, err := repo.List(ctx(t)); err == nil {
		t.Fatalf("expected scan error")
	}
}

func TestPatientSQLite_Delete(t *testing.T) {
	t.Parallel()
	repo, mock := newPatientMock(t)

	// zero rows affected is still success
	mock.ExpectExec(regexp.QuoteMeta(deletePatientSQL)).
		WithArgs(404).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(ctx(t), 404); err != nil {
		t.Fatalf("Delete of missing id should succeed, got %v", err)
	}
}

func TestPatientSQLite_Count(t *testing.T) {
	t.Parallel()
	repo, mock := newPatientMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(countPatientsSQL)).
		WillReturnError(errors.New("locked"))

	if _, err := repo.Count(ctx(t)); err == nil || !strings.Contains(err.Error(), "count patients") {
		t.Fatalf("expected wrapped count error, got %v", err)
	}
}
