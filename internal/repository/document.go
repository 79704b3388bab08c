package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/eteeap/document-module/internal/domain/model"
)

// documentColumns — список столбцов таблицы document_registry для SELECT-запросов.
// DRY: одно место для всех SELECT'ов.
const documentColumns = `file_id, owner_id, original_filename, content_type, size,
	checksum, label, category, storage_path, uploaded_at`

// DocumentRepository — интерфейс доступа к метаданным документов.
type DocumentRepository interface {
	// Insert записывает метаданные документа.
	// Вызывается после успешной записи содержимого на диск —
	// документ становится видимым только после фиксации строки.
	Insert(ctx context.Context, doc *model.StoredFile) error
	// GetByID возвращает документ по UUID.
	GetByID(ctx context.Context, fileID string) (*model.StoredFile, error)
	// ListByOwner возвращает все документы владельца,
	// отсортированные по времени загрузки (затем по file_id).
	ListByOwner(ctx context.Context, ownerID string) ([]*model.StoredFile, error)
	// Delete удаляет запись документа. ErrNotFound если записи нет.
	Delete(ctx context.Context, fileID string) error
}

// documentRepo — реализация DocumentRepository через pgx.
type documentRepo struct {
	db DBTX
}

// NewDocumentRepository создаёт репозиторий документов.
func NewDocumentRepository(db DBTX) DocumentRepository {
	return &documentRepo{db: db}
}

// Insert записывает метаданные документа в document_registry.
func (r *documentRepo) Insert(ctx context.Context, doc *model.StoredFile) error {
	query := `
		INSERT INTO document_registry
			(file_id, owner_id, original_filename, content_type, size,
			 checksum, label, category, storage_path, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		doc.ID, doc.OwnerID, doc.Filename, doc.ContentType, doc.SizeBytes,
		doc.Checksum, doc.Label, doc.Category, doc.StoragePath, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("ошибка вставки документа: %w", err)
	}
	return nil
}

// GetByID возвращает документ по UUID или ErrNotFound.
func (r *documentRepo) GetByID(ctx context.Context, fileID string) (*model.StoredFile, error) {
	query := fmt.Sprintf(`SELECT %s FROM document_registry WHERE file_id = $1`, documentColumns)

	d := &model.StoredFile{}
	err := r.db.QueryRow(ctx, query, fileID).Scan(
		&d.ID, &d.OwnerID, &d.Filename, &d.ContentType, &d.SizeBytes,
		&d.Checksum, &d.Label, &d.Category, &d.StoragePath, &d.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения документа: %w", err)
	}
	return d, nil
}

// ListByOwner возвращает документы владельца в детерминированном порядке:
// по возрастанию uploaded_at, при равенстве — по file_id.
func (r *documentRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.StoredFile, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM document_registry WHERE owner_id = $1 ORDER BY uploaded_at ASC, file_id ASC`,
		documentColumns,
	)

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки документов: %w", err)
	}
	defer rows.Close()

	var result []*model.StoredFile
	for rows.Next() {
		d := &model.StoredFile{}
		if err := rows.Scan(
			&d.ID, &d.OwnerID, &d.Filename, &d.ContentType, &d.SizeBytes,
			&d.Checksum, &d.Label, &d.Category, &d.StoragePath, &d.UploadedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования документа: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}
	return result, nil
}

// Delete удаляет запись документа из document_registry.
func (r *documentRepo) Delete(ctx context.Context, fileID string) error {
	query := `DELETE FROM document_registry WHERE file_id = $1`

	tag, err := r.db.Exec(ctx, query, fileID)
	if err != nil {
		return fmt.Errorf("ошибка удаления документа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
