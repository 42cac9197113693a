// internal/listing/sql_test.go

package listing

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func TestSQLStorePermalinkExists(t *testing.T) {
	dbx, mock := newMock(t)
	s := NewSQLStore(dbx)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM listing WHERE permalink = ? AND ckey != ? LIMIT 1`)).
		WithArgs("/dayton-ohio/provider/acme-repair", int64(500)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	taken, err := s.PermalinkExists(context.Background(), "/dayton-ohio/provider/acme-repair", 500)
	if err != nil {
		t.Fatalf("PermalinkExists: %v", err)
	}
	if !taken {
		t.Error("want taken")
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM listing`)).
		WithArgs("/free/provider/path", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	taken, err = s.PermalinkExists(context.Background(), "/free/provider/path", 0)
	if err != nil {
		t.Fatalf("PermalinkExists: %v", err)
	}
	if taken {
		t.Error("want free")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLStoreInsertMapsDuplicate(t *testing.T) {
	dbx, mock := newMock(t)
	s := NewSQLStore(dbx)

	mock.ExpectExec(`INSERT INTO listing`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := s.Save(context.Background(), &Listing{StoreName: "Acme"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLStoreInsertBackfillsCKey(t *testing.T) {
	dbx, mock := newMock(t)
	s := NewSQLStore(dbx)

	mock.ExpectExec(`INSERT INTO listing`).
		WillReturnResult(sqlmock.NewResult(501, 1))

	l := &Listing{StoreName: "Acme"}
	if err := s.Save(context.Background(), l); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if l.CKey != 501 {
		t.Errorf("ckey = %d, want 501", l.CKey)
	}
}

func TestSQLStoreDeleteNotFound(t *testing.T) {
	dbx, mock := newMock(t)
	s := NewSQLStore(dbx)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM listing WHERE ckey = ?`)).
		WithArgs(int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Delete(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLPaymentStoreLatestCompletedMiss(t *testing.T) {
	dbx, mock := newMock(t)
	s := NewSQLPaymentStore(dbx)

	mock.ExpectQuery(`SELECT .* FROM p4_payment`).
		WithArgs(int64(500), paymentType).
		WillReturnRows(sqlmock.NewRows([]string{"idPMT"}))

	_, err := s.LatestCompleted(context.Background(), 500)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLPaymentStoreDeleteUnpaidWithin(t *testing.T) {
	dbx, mock := newMock(t)
	s := NewSQLPaymentStore(dbx)

	mock.ExpectExec(`DELETE FROM p4_payment`).
		WithArgs(int64(500), paymentType, 30).
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := s.DeleteUnpaidWithin(context.Background(), 500, 30); err != nil {
		t.Fatalf("DeleteUnpaidWithin: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLPriceTableCachesRows(t *testing.T) {
	dbx, mock := newMock(t)
	tab := NewSQLPriceTable(dbx)

	mock.ExpectQuery(`SELECT price FROM rank_price`).
		WithArgs(2.0).
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(275.0))

	for i := 0; i < 3; i++ {
		price, err := tab.PriceForRank(context.Background(), 2)
		if err != nil {
			t.Fatalf("PriceForRank: %v", err)
		}
		if price != 275 {
			t.Errorf("price = %v", price)
		}
	}
	// One expectation, three lookups: the LRU absorbed the repeats.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLPriceTableRankZeroIsFree(t *testing.T) {
	dbx, _ := newMock(t)
	tab := NewSQLPriceTable(dbx)

	price, err := tab.PriceForRank(context.Background(), 0)
	if err != nil {
		t.Fatalf("PriceForRank: %v", err)
	}
	if price != 0 {
		t.Errorf("price = %v, want 0", price)
	}
}

func TestSQLAuditStoreAppend(t *testing.T) {
	dbx, mock := newMock(t)
	s := NewSQLAuditStore(dbx)

	mock.ExpectExec(`INSERT INTO listing_log`).
		WillReturnResult(sqlmock.NewResult(9001, 1))

	id, err := s.Append(context.Background(), &Snapshot{
		CKey:     500,
		Action:   ActionUpdate,
		LoggedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if id != 9001 {
		t.Errorf("id = %d, want 9001", id)
	}
}
