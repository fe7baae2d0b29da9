package admin_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"rollcall/internal/admin"
	"rollcall/internal/apperr"
)

func newMockRepo(t *testing.T) (*admin.Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return admin.NewRepository(db), mock
}

var lockAdminsSQL = regexp.QuoteMeta(`SELECT id FROM users WHERE is_admin = TRUE FOR UPDATE`)

func adminRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id"})
	for _, id := range ids {
		rows.AddRow(id)
	}
	return rows
}

func TestRepositoryDeleteAdminLastAdmin(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockAdminsSQL).WillReturnRows(adminRows("a1"))
	mock.ExpectRollback()

	if err := repo.DeleteAdmin(context.Background(), "a1"); err != apperr.ErrLastAdmin {
		t.Fatalf("err = %v, want last admin", err)
	}
}

func TestRepositoryDeleteAdminUnknownID(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockAdminsSQL).WillReturnRows(adminRows("a1", "a2"))
	mock.ExpectRollback()

	if err := repo.DeleteAdmin(context.Background(), "ghost"); err != apperr.ErrAdminNotFound {
		t.Fatalf("err = %v, want admin not found", err)
	}
}

func TestRepositoryDeleteAdmin(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockAdminsSQL).WillReturnRows(adminRows("a1", "a2"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs("a2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.DeleteAdmin(context.Background(), "a2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestRepositoryBootstrapWhenAdminExists(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WithArgs(7311001).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE is_admin = TRUE)`)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.BootstrapAdmin(context.Background(), admin.User{ID: "a1", Email: "ada@example.com", IsAdmin: true}, "hash")
	if err != apperr.ErrAdminExists {
		t.Fatalf("err = %v, want admin exists", err)
	}
}

func TestRepositoryCreateAdminDuplicateEmail(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	mock.ExpectRollback()

	err := repo.CreateAdmin(context.Background(), admin.User{ID: "a1", Email: "ada@example.com", IsAdmin: true}, "hash")
	if err != apperr.ErrDuplicateEmail {
		t.Fatalf("err = %v, want duplicate email", err)
	}
}

func TestRepositoryCreateAdminWritesAccount(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	u := admin.User{ID: "a1", Name: "Ada", Email: "ada@example.com", IsAdmin: true, CreatedAt: now, UpdatedAt: now}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs(u.ID, u.Name, u.Email, u.IsAdmin, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO accounts`)).
		WithArgs(u.ID, "hash", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.CreateAdmin(context.Background(), u, "hash"); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestRepositoryDeleteSessionReportsRemoval(t *testing.T) {
	repo, mock := newMockRepo(t)
	deleteSQL := regexp.QuoteMeta(`DELETE FROM sessions WHERE id = $1`)
	mock.ExpectExec(deleteSQL).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteSQL).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	if ok, err := repo.DeleteSession(ctx, "s1"); err != nil || !ok {
		t.Fatalf("first delete = %v, %v", ok, err)
	}
	if ok, err := repo.DeleteSession(ctx, "s1"); err != nil || ok {
		t.Fatalf("second delete = %v, %v", ok, err)
	}
}

func TestRepositoryListAdminsEmpty(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE is_admin = TRUE`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "is_admin", "created_at", "updated_at"}))

	admins, err := repo.ListAdmins(context.Background())
	if err != nil || admins == nil || len(admins) != 0 {
		t.Fatalf("admins = %#v, %v", admins, err)
	}
}
