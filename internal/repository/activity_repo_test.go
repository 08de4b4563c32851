package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"booksearch/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

const activityColumns = "id, occurred_at, user_id, type, book_id, message, meta"

func TestActivityAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewActivitySQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(insertActivitySQL)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(),
			"u1", "BOOK_SAVED", "b1", "saved Dune",
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Append(ctx(t), models.Activity{
		UserID:      "u1",
		Type:        "  book_saved ",
		BookID:      "b1",
		Description: "saved Dune",
		Metadata:    map[string]any{"title": "Dune"},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestActivityAppend_DBError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewActivitySQLite(db)

	mock.ExpectExec("INSERT INTO activity").
		WillReturnError(errors.New("down"))

	err = repo.Append(ctx(t), models.Activity{Type: "book_deleted", UserID: "u1", BookID: "b1"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestActivityList_NoFilters_And_MetadataParsing(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewActivitySQLite(db)

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	js, _ := json.Marshal(map[string]any{"title": "Dune"})

	rows := sqlmock.NewRows(strings.Split(activityColumns, ", ")).
		AddRow("1", now, "u1", "BOOK_SAVED", "b1", "m1", string(js)).
		AddRow("2", now.Add(time.Hour), "u1", "BOOK_DELETED", "b1", "m2", nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + activityColumns + ` FROM activity ORDER BY occurred_at ASC, rowid ASC`)).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), "", time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2, got %d", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("unexpected ids: %v, %v", got[0].ID, got[1].ID)
	}
	b1, _ := json.Marshal(got[0].Metadata)
	if string(b1) != string(js) {
		t.Fatalf("metadata mismatch: %s vs %s", string(b1), string(js))
	}
	if got[1].Metadata != nil {
		t.Fatalf("expected nil meta, got %#v", got[1].Metadata)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestActivityList_WithFilters_OrderAndArgs(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewActivitySQLite(db)

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	query := `SELECT ` + activityColumns + ` FROM activity WHERE user_id = ? AND occurred_at >= ? AND occurred_at <= ? AND type = ? ORDER BY occurred_at ASC, rowid ASC`

	rows := sqlmock.NewRows(strings.Split(activityColumns, ", ")).
		AddRow("2", from, "u1", "BOOK_SAVED", "b2", "b", nil).
		AddRow("3", to, "u1", "BOOK_SAVED", "b3", "c", nil)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("u1", "2025-01-01 11:00:00", "2025-01-01 12:00:00", "BOOK_SAVED").
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), "u1", from, to, " book_saved ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "3" {
		t.Fatalf("unexpected results: %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestActivityList_ScanError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewActivitySQLite(db)

	rows := sqlmock.NewRows(strings.Split(activityColumns, ", ")).
		// occurred_at wrong type to force scan error
		AddRow("x", 123, "u1", "BOOK_SAVED", "b1", "msg", nil)

	mock.ExpectQuery("SELECT (.+) FROM activity").WillReturnRows(rows)

	if _, err := repo.List(ctx(t), "", time.Time{}, time.Time{}, ""); err == nil {
		t.Fatalf("expected scan error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestActivityMemory_Filters(t *testing.T) {
	repo := NewActivityMemory()
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	for i, a := range []models.Activity{
		{UserID: "u1", Type: models.ActivityBookSaved, BookID: "b1", OccurredAt: base.Add(2 * time.Minute)},
		{UserID: "u1", Type: models.ActivityBookDeleted, BookID: "b1", OccurredAt: base.Add(3 * time.Minute)},
		{UserID: "u2", Type: models.ActivityBookSaved, BookID: "b9", OccurredAt: base.Add(1 * time.Minute)},
	} {
		if err := repo.Append(ctx(t), a); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	all, _ := repo.List(ctx(t), "", time.Time{}, time.Time{}, "")
	if len(all) != 3 || all[0].UserID != "u2" {
		t.Fatalf("expected 3 entries ordered by time, got %+v", all)
	}

	mine, _ := repo.List(ctx(t), "u1", time.Time{}, time.Time{}, "book_deleted")
	if len(mine) != 1 || mine[0].Type != models.ActivityBookDeleted {
		t.Fatalf("unexpected filtered result: %+v", mine)
	}

	window, _ := repo.List(ctx(t), "", base.Add(90*time.Second), base.Add(150*time.Second), "")
	if len(window) != 1 || window[0].BookID != "b1" {
		t.Fatalf("unexpected window result: %+v", window)
	}
}
