package repository

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"home_climate/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func newUserMock(t *testing.T) (sqlmock.Sqlmock, *UserSQLite) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	})
	return mock, NewUserSQLite(db)
}

func TestUserCreate(t *testing.T) {
	cases := []struct {
		name    string
		user    models.User
		expect  func(sqlmock.Sqlmock)
		wantID  int
		wantErr error
	}{
		{
			name: "admin account",
			user: models.User{Username: "alice", PasswordHash: "h1", Admin: true},
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
					WithArgs("alice", "h1", true).
					WillReturnResult(sqlmock.NewResult(42, 1))
			},
			wantID: 42,
		},
		{
			name: "duplicate username",
			user: models.User{Username: "alice", PasswordHash: "h2"},
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
					WithArgs("alice", "h2", false).
					WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)"))
			},
			wantErr: ErrUsernameTaken,
		},
		{
			name:    "username too short never reaches the store",
			user:    models.User{Username: "al", PasswordHash: "h3"},
			expect:  func(sqlmock.Sqlmock) {},
			wantErr: &ValidationError{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock, repo := newUserMock(t)
			tc.expect(mock)

			got, err := repo.Create(ctx(t), tc.user)
			if tc.wantErr != nil {
				var verr *ValidationError
				if _, isValidation := tc.wantErr.(*ValidationError); isValidation {
					if !errors.As(err, &verr) {
						t.Fatalf("expected validation error, got %v", err)
					}
					return
				}
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tc.wantID || got.Username != tc.user.Username {
				t.Fatalf("unexpected user: %+v", got)
			}
		})
	}
}

func TestUserCreate_ExecFailureIsWrapped(t *testing.T) {
	mock, repo := newUserMock(t)
	mock.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
		WithArgs("bob", "h", false).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("no last id")))

	_, err := repo.Create(ctx(t), models.User{Username: "bob", PasswordHash: "h"})
	if err == nil || errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected a wrapped store error, got %v", err)
	}
}

func TestUserGetByUsername(t *testing.T) {
	mock, repo := newUserMock(t)
	cols := []string{"id", "username", "password_hash", "admin"}

	mock.ExpectQuery(regexp.QuoteMeta(selectUserByUsernameSQL)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(7, "alice", "hash", true))
	u, err := repo.GetByUsername(ctx(t), "alice")
	if err != nil || u.ID != 7 || !u.Admin || u.PasswordHash != "hash" {
		t.Fatalf("unexpected user %+v (err %v)", u, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(selectUserByUsernameSQL)).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	if _, err := repo.GetByUsername(ctx(t), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(selectUserByUsernameSQL)).
		WithArgs("bob").
		WillReturnError(errors.New("database is locked"))
	if _, err := repo.GetByUsername(ctx(t), "bob"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a store error, got %v", err)
	}
}
