package repository

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"home_climate/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func newProgramMock(t *testing.T) (sqlmock.Sqlmock, *ProgramSQLite) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return mock, NewProgramSQLite(db)
}

var programRowColumns = []string{"id", "name", "program", "mode", "is_active", "created_at", "updated_at"}

func programRow(id int64, name string, active bool) *sqlmock.Rows {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(programRowColumns).
		AddRow(id, name, `[20,20.5,21]`, models.ModeHeat, active, now, now)
}

func TestProgramCreate_AlwaysInactive(t *testing.T) {
	t.Parallel()
	mock, repo := newProgramMock(t)

	mock.ExpectExec(regexp.QuoteMeta(insertProgramSQL)).
		WithArgs("weekday", `[20,21]`, models.ModeHeat, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(5, 1))

	got, err := repo.Create(ctx(t), models.ClimateProgram{
		Name:     "weekday",
		Program:  []float64{20, 21},
		Mode:     models.ModeHeat,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID != 5 || got.IsActive {
		t.Fatalf("unexpected program: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestProgramCreate_ValidationError(t *testing.T) {
	t.Parallel()
	mock, repo := newProgramMock(t)

	_, err := repo.Create(ctx(t), models.ClimateProgram{Name: "", Mode: models.ModeHeat})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("expected name and program to fail, got %v", verr.Fields)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statement expected: %v", err)
	}
}

func TestProgramActivate_SingleTransaction(t *testing.T) {
	t.Parallel()
	mock, repo := newProgramMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectProgramByIDSQL)).
		WithArgs(int64(2)).
		WillReturnRows(programRow(2, "night", false))
	mock.ExpectExec(regexp.QuoteMeta(clearOtherActiveSQL)).
		WithArgs(sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(setActiveSQL)).
		WithArgs(sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectProgramByIDSQL)).
		WithArgs(int64(2)).
		WillReturnRows(programRow(2, "night", true))
	mock.ExpectCommit()

	got, err := repo.Activate(ctx(t), 2)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !got.IsActive || got.Name != "night" || len(got.Program) != 3 {
		t.Fatalf("unexpected program: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestProgramActivate_UnknownIDLeavesStateAlone(t *testing.T) {
	t.Parallel()
	mock, repo := newProgramMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectProgramByIDSQL)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(programRowColumns))
	mock.ExpectRollback()

	_, err := repo.Activate(ctx(t), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestProgramActivate_SetFailsRollsBack(t *testing.T) {
	t.Parallel()
	mock, repo := newProgramMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectProgramByIDSQL)).
		WithArgs(int64(2)).
		WillReturnRows(programRow(2, "night", false))
	mock.ExpectExec(regexp.QuoteMeta(clearOtherActiveSQL)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(setActiveSQL)).
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	if _, err := repo.Activate(ctx(t), 2); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestProgramDeactivate_OnlyWhenStillActive(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "was active", affected: 1, want: true},
		{name: "already replaced", affected: 0, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock, repo := newProgramMock(t)
			mock.ExpectExec(regexp.QuoteMeta(deactivateSQL)).
				WithArgs(sqlmock.AnyArg(), int64(4)).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			got, err := repo.Deactivate(ctx(t), 4)
			if err != nil {
				t.Fatalf("Deactivate: %v", err)
			}
			if got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("mock expectations: %v", err)
			}
		})
	}
}

func TestProgramUpdate_ActivatingClearsOthers(t *testing.T) {
	t.Parallel()
	mock, repo := newProgramMock(t)

	active := true
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectProgramByIDSQL)).
		WithArgs(int64(3)).
		WillReturnRows(programRow(3, "away", false))
	mock.ExpectExec(regexp.QuoteMeta(clearOtherActiveSQL)).
		WithArgs(sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(updateProgramSQL)).
		WithArgs(nil, nil, nil, true, sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectProgramByIDSQL)).
		WithArgs(int64(3)).
		WillReturnRows(programRow(3, "away", true))
	mock.ExpectCommit()

	got, err := repo.Update(ctx(t), 3, models.ProgramPatch{IsActive: &active})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !got.IsActive {
		t.Fatalf("expected active program, got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestProgramDelete_ReturnsPriorDocument(t *testing.T) {
	t.Parallel()
	mock, repo := newProgramMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectProgramByIDSQL)).
		WithArgs(int64(6)).
		WillReturnRows(programRow(6, "vacation", true))
	mock.ExpectExec(regexp.QuoteMeta(deleteProgramSQL)).
		WithArgs(int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.Delete(ctx(t), 6)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !got.IsActive || got.Name != "vacation" {
		t.Fatalf("unexpected program: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
