package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eteeap/document-module/internal/config"
	"github.com/eteeap/document-module/internal/database"
	"github.com/eteeap/document-module/internal/domain/model"
)

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
// Возвращает pgxpool.Pool; контейнер и пул закрываются через t.Cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("documents_test"),
		postgres.WithUsername("documents"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	// Настраиваем env для config.Load()
	os.Setenv("DM_DATA_DIR", t.TempDir())
	os.Setenv("DM_DB_HOST", host)
	os.Setenv("DM_DB_PORT", port.Port())
	os.Setenv("DM_DB_NAME", "documents_test")
	os.Setenv("DM_DB_USER", "documents")
	os.Setenv("DM_DB_PASSWORD", "test-password")
	os.Setenv("DM_DB_SSL_MODE", "disable")
	os.Setenv("DM_JWKS_URL", "http://localhost:8080/jwks")
	os.Setenv("DM_PROFILE_URL", "http://localhost:8081")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Применяем миграции
	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

// testDocument возвращает заполненный StoredFile для тестов.
func testDocument(ownerID string, uploadedAt time.Time) *model.StoredFile {
	return &model.StoredFile{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Filename:    "transcript.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
		Checksum:    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Label:       "transcript",
		Category:    "academic",
		StoragePath: "transcript_owner_20260101_abcd1234.pdf",
		UploadedAt:  uploadedAt,
	}
}

func TestDocumentCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewDocumentRepository(pool)

	ownerID := uuid.New().String()
	doc := testDocument(ownerID, time.Now().UTC().Truncate(time.Microsecond))

	// Insert
	if err := repo.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert() ошибка: %v", err)
	}

	// GetByID
	got, err := repo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.Filename != "transcript.pdf" {
		t.Errorf("Filename = %q, хотели %q", got.Filename, "transcript.pdf")
	}
	if got.OwnerID != ownerID {
		t.Errorf("OwnerID = %q, хотели %q", got.OwnerID, ownerID)
	}
	if got.SizeBytes != 1024 {
		t.Errorf("SizeBytes = %d, хотели 1024", got.SizeBytes)
	}
	if got.Label != "transcript" {
		t.Errorf("Label = %q, хотели %q", got.Label, "transcript")
	}

	// Delete
	if err := repo.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if _, err := repo.GetByID(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("После Delete ожидали ErrNotFound, получили: %v", err)
	}

	// Повторный Delete — ErrNotFound
	if err := repo.Delete(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Повторный Delete: ожидали ErrNotFound, получили: %v", err)
	}
}

func TestListByOwner_Ordering(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewDocumentRepository(pool)

	ownerID := uuid.New().String()
	base := time.Now().UTC().Truncate(time.Microsecond)

	// Три документа: два с одинаковым uploaded_at (tie-break по file_id),
	// один более поздний.
	docA := testDocument(ownerID, base)
	docB := testDocument(ownerID, base)
	docC := testDocument(ownerID, base.Add(time.Minute))

	for _, d := range []*model.StoredFile{docC, docA, docB} {
		if err := repo.Insert(ctx, d); err != nil {
			t.Fatalf("Insert() ошибка: %v", err)
		}
	}

	list, err := repo.ListByOwner(ctx, ownerID)
	if err != nil {
		t.Fatalf("ListByOwner() ошибка: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("ListByOwner() вернул %d записей, хотели 3", len(list))
	}

	// Последний — документ с самым поздним uploaded_at
	if list[2].ID != docC.ID {
		t.Errorf("list[2].ID = %q, хотели %q", list[2].ID, docC.ID)
	}

	// Первые два — в порядке file_id
	first, second := docA.ID, docB.ID
	if first > second {
		first, second = second, first
	}
	if list[0].ID != first || list[1].ID != second {
		t.Errorf("tie-break по file_id нарушен: got %q, %q; хотели %q, %q",
			list[0].ID, list[1].ID, first, second)
	}

	// Чужой владелец — пустой список без ошибки
	other, err := repo.ListByOwner(ctx, uuid.New().String())
	if err != nil {
		t.Fatalf("ListByOwner() для чужого владельца: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Ожидали пустой список, получили %d записей", len(other))
	}
}
