// store.go — сервис хранения документов: содержимое на диске (filestore),
// метаданные в PostgreSQL (document_registry), LRU-кэш метаданных.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eteeap/document-module/internal/domain/model"
	"github.com/eteeap/document-module/internal/repository"
	"github.com/eteeap/document-module/internal/storage/filestore"
)

// ErrNotFound — документ не найден.
var ErrNotFound = errors.New("документ не найден")

// Prometheus-метрики хранилища документов.
var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_uploads_total",
		Help: "Общее количество загрузок документов (по статусу).",
	}, []string{"status"})

	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_downloads_total",
		Help: "Общее количество запросов на скачивание (по статусу).",
	}, []string{"status"})

	downloadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_download_bytes_total",
		Help: "Общее количество переданных байт при скачивании.",
	})

	activeDownloads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dm_active_downloads",
		Help: "Количество активных (in-progress) скачиваний.",
	})
)

// UploadParams — параметры загрузки документа.
type UploadParams struct {
	// Reader — поток данных файла
	Reader io.Reader
	// OwnerID — владелец документа (sub из JWT абитуриента)
	OwnerID string
	// OriginalFilename — оригинальное имя файла
	OriginalFilename string
	// ContentType — MIME-тип файла
	ContentType string
	// Label — метка для группировки листинга (опционально)
	Label string
	// Category — категория документа (опционально)
	Category string
}

// DocumentStore — сервис хранения документов.
// Атомарность публикации: содержимое сначала durably записывается
// на диск, строка метаданных вставляется последней. Листинги читают
// только реестр, поэтому частичные загрузки невидимы.
type DocumentStore struct {
	repo   repository.DocumentRepository
	files  *filestore.FileStore
	cache  *MetadataCache
	logger *slog.Logger
}

// NewDocumentStore создаёт сервис хранения документов.
func NewDocumentStore(
	repo repository.DocumentRepository,
	files *filestore.FileStore,
	cache *MetadataCache,
	logger *slog.Logger,
) *DocumentStore {
	return &DocumentStore{
		repo:   repo,
		files:  files,
		cache:  cache,
		logger: logger.With(slog.String("component", "document_store")),
	}
}

// Put сохраняет документ: содержимое на диск, затем метаданные в реестр.
// При ошибке вставки метаданных содержимое удаляется с диска —
// незавершённая загрузка не оставляет следов.
func (s *DocumentStore) Put(ctx context.Context, params UploadParams) (*model.StoredFile, error) {
	saved, err := s.files.SaveFile(params.Reader, params.OriginalFilename, params.OwnerID)
	if err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ошибка записи содержимого: %w", err)
	}

	doc := &model.StoredFile{
		ID:          uuid.New().String(),
		OwnerID:     params.OwnerID,
		Filename:    params.OriginalFilename,
		ContentType: params.ContentType,
		SizeBytes:   saved.Size,
		Checksum:    saved.Checksum,
		Label:       params.Label,
		Category:    params.Category,
		StoragePath: saved.StoragePath,
		UploadedAt:  time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, doc); err != nil {
		// Откат: содержимое без строки реестра недостижимо, убираем его
		if rmErr := s.files.DeleteFile(saved.StoragePath); rmErr != nil {
			s.logger.Error("Не удалось убрать содержимое после сбоя реестра",
				slog.String("storage_path", saved.StoragePath),
				slog.String("error", rmErr.Error()),
			)
		}
		uploadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ошибка записи метаданных: %w", err)
	}

	uploadsTotal.WithLabelValues("success").Inc()
	s.logger.Info("Документ сохранён",
		slog.String("file_id", doc.ID),
		slog.String("owner_id", doc.OwnerID),
		slog.Int64("size", doc.SizeBytes),
	)
	return doc, nil
}

// FindByID возвращает метаданные документа (из кэша или реестра).
// Записи StoredFile неизменяемы, поэтому кэширование безопасно.
func (s *DocumentStore) FindByID(ctx context.Context, fileID string) (*model.StoredFile, error) {
	if doc, ok := s.cache.Get(fileID); ok {
		return doc, nil
	}

	doc, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.cache.Set(fileID, doc)
	return doc, nil
}

// ListByOwner возвращает все документы владельца из реестра.
func (s *DocumentStore) ListByOwner(ctx context.Context, ownerID string) ([]*model.StoredFile, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// OpenRead открывает содержимое документа для чтения.
// Расхождение реестра и диска (строка есть, файла нет) — ошибка
// хранилища, не ErrNotFound.
func (s *DocumentStore) OpenRead(ctx context.Context, fileID string) (*model.StoredFile, io.ReadCloser, error) {
	doc, err := s.FindByID(ctx, fileID)
	if err != nil {
		downloadsTotal.WithLabelValues("not_found").Inc()
		return nil, nil, err
	}

	f, err := s.files.ReadFile(doc.StoragePath)
	if err != nil {
		downloadsTotal.WithLabelValues("error").Inc()
		return nil, nil, fmt.Errorf("ошибка открытия содержимого %s: %w", fileID, err)
	}

	downloadsTotal.WithLabelValues("success").Inc()
	return doc, newCountingReadCloser(f), nil
}

// Delete удаляет документ: сначала строку реестра, затем содержимое.
// Порядок гарантирует, что документ исчезает из листингов сразу;
// осиротевший файл (сбой между шагами) недостижим через API.
func (s *DocumentStore) Delete(ctx context.Context, fileID string) error {
	doc, err := s.FindByID(ctx, fileID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, fileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Параллельное удаление успело раньше
			s.cache.Delete(fileID)
			return ErrNotFound
		}
		return fmt.Errorf("ошибка удаления метаданных: %w", err)
	}

	s.cache.Delete(fileID)

	if err := s.files.DeleteFile(doc.StoragePath); err != nil {
		s.logger.Error("Не удалось удалить содержимое документа",
			slog.String("file_id", fileID),
			slog.String("storage_path", doc.StoragePath),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("Документ удалён",
		slog.String("file_id", fileID),
		slog.String("owner_id", doc.OwnerID),
	)
	return nil
}

// countingReadCloser — обёртка над файлом для метрик скачивания.
// Инкрементирует dm_active_downloads на время жизни reader'а.
type countingReadCloser struct {
	f      *os.File
	closed bool
}

func newCountingReadCloser(f *os.File) *countingReadCloser {
	activeDownloads.Inc()
	return &countingReadCloser{f: f}
}

func (r *countingReadCloser) Read(p []byte) (int, error) {
	n, err := r.f.Read(p)
	if n > 0 {
		downloadBytesTotal.Add(float64(n))
	}
	return n, err
}

func (r *countingReadCloser) Close() error {
	if !r.closed {
		r.closed = true
		activeDownloads.Dec()
	}
	return r.f.Close()
}
