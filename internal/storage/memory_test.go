package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMemoryStoreSaveInsertsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewMemoryStore(db)

	mock.ExpectExec("INSERT INTO memories").
		WithArgs(sqlmock.AnyArg(), "fact", "workspace layout", "nexus-lsp", "uses cobra", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := store.Save(context.Background(), Memory{
		MType:    "fact",
		MGoal:    "workspace layout",
		MProject: "nexus-lsp",
		MPayload: "uses cobra",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated mem_id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMemoryStoreSearchScoresOverlap(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewMemoryStore(db)

	rows := sqlmock.NewRows([]string{"m_goal", "m_payload"}).
		AddRow("workspace layout", "uses cobra for the CLI")
	mock.ExpectQuery("SELECT m_goal, m_payload FROM memories").
		WithArgs("%cobra%", "%cobra%", 10).
		WillReturnRows(rows)

	got, err := store.Search(context.Background(), "cobra", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 snippet, got %d", len(got))
	}
	if got[0].Score != 1 {
		t.Fatalf("expected full term overlap, got %v", got[0].Score)
	}
}

func TestMemoryStoreAddDocSource(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewMemoryStore(db)

	mock.ExpectExec("INSERT INTO memories").
		WithArgs(sqlmock.AnyArg(), "doc_source", "doc_sources", "", "https://example.com/docs", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.AddDocSource(context.Background(), "https://example.com/docs"); err != nil {
		t.Fatalf("AddDocSource: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
