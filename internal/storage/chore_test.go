package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestChoreStoreCreateAndMarkDone(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewChoreStore(db)

	mock.ExpectExec("INSERT INTO chores").
		WithArgs(sqlmock.AnyArg(), "t1", "add tests", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	chore, err := store.Create(context.Background(), "t1", "add tests", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if chore.Done {
		t.Fatal("expected new chore to be undone")
	}

	mock.ExpectExec("UPDATE chores SET done").
		WithArgs(chore.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.MarkDone(context.Background(), chore.ID); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestChoreStoreMarkDoneNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewChoreStore(db)

	mock.ExpectExec("UPDATE chores SET done").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.MarkDone(context.Background(), "missing"); err == nil {
		t.Fatal("expected not-found error")
	}
}
