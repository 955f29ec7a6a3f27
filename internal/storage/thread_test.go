package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

func TestThreadStoreCreateThread(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewThreadStore(db)

	mock.ExpectExec("INSERT INTO cthreads").
		WithArgs(sqlmock.AnyArg(), "scratch", "test-model", "/workspace", "null", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	thread, err := store.CreateThread(context.Background(), chatmsg.Thread{
		Title:         "scratch",
		Model:         "test-model",
		WorkspaceRoot: "/workspace",
	})
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if thread.ID == "" {
		t.Fatal("expected generated thread id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestThreadStoreAppendMessageAssignsNextNum(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewThreadStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("t1", 0).
		WillReturnRows(sqlmock.NewRows([]string{"num"}).AddRow(3))
	mock.ExpectExec("INSERT INTO cmessage").
		WithArgs("t1", 0, 3, "user", "hello", "null", "null", "null", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE cthreads SET updated_at").
		WithArgs(sqlmock.AnyArg(), "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = store.AppendMessage(context.Background(), "t1", 0, chatmsg.ChatMessage{
		Role:    chatmsg.RoleUser,
		Content: "hello",
	})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
