package member_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"rollcall/internal/apperr"
	"rollcall/internal/member"
)

func newMockRepo(t *testing.T) (*member.Repository, sqlmock.Sqlmock) {
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
	return member.NewRepository(db), mock
}

func TestRepositoryUpdateAndDeleteRequireRow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		affected int64
		want     error
	}{
		{"existing", 1, nil},
		{"missing", 0, apperr.ErrMemberNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE members SET name = $2, email = $3, updated_at = $4`)).
				WithArgs("m1", "Ada", nil, now).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))
			mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM members WHERE id = $1`)).
				WithArgs("m1").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			if err := repo.UpdateMember(ctx, member.Member{ID: "m1", Name: "Ada", UpdatedAt: now}); err != tc.want {
				t.Fatalf("update err = %v, want %v", err, tc.want)
			}
			if err := repo.DeleteMember(ctx, "m1"); err != tc.want {
				t.Fatalf("delete err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRepositoryGetMissingMember(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM members WHERE id = $1`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at", "updated_at"}))

	m, err := repo.GetMember(context.Background(), "ghost")
	if err != nil || m != nil {
		t.Fatalf("get = %+v, %v", m, err)
	}
}

func TestRepositoryListMembers(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM members ORDER BY name, id`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at", "updated_at"}).
			AddRow("m1", "Ada", "ada@example.com", now, now).
			AddRow("m2", "Bob", nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM members ORDER BY name, id`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at", "updated_at"}))

	ctx := context.Background()
	members, err := repo.ListMembers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(members) != 2 || members[0].Email == nil || *members[0].Email != "ada@example.com" || members[1].Email != nil {
		t.Fatalf("members = %+v", members)
	}

	empty, err := repo.ListMembers(ctx)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("empty list = %#v, %v", empty, err)
	}
}
