package leads

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), "Jane Doe", "407-555-0100", "", "offer", "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	lead, err := repo.Create(context.Background(), &CreateLeadRequest{
		Name:  "Jane Doe",
		Phone: "407-555-0100",
		Page:  "offer",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if lead.ID == "" {
		t.Fatal("expected lead id")
	}
	if !lead.CreatedAt.Equal(now) {
		t.Fatalf("expected created_at %s, got %s", now, lead.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresSetQueueMessageID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	mock.ExpectExec("UPDATE leads SET queue_message_id").
		WithArgs("lead-1", "msg_1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.SetQueueMessageID(context.Background(), "lead-1", "msg_1"); err != nil {
		t.Fatalf("set queue message id: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresSetQueueMessageIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	mock.ExpectExec("UPDATE leads SET queue_message_id").
		WithArgs("missing", "msg_1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.SetQueueMessageID(context.Background(), "missing", "msg_1"); err != ErrLeadNotFound {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestPostgresGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, name, phone, email, page, source").
		WithArgs("lead-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "phone", "email", "page", "source", "queue_message_id", "created_at"}).
			AddRow("lead-1", "Jane Doe", "4075550100", "", "offer", "google", "msg_1", now))

	lead, err := repo.GetByID(context.Background(), "lead-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if lead.QueueMessageID != "msg_1" {
		t.Fatalf("expected queue message id, got %q", lead.QueueMessageID)
	}
}
