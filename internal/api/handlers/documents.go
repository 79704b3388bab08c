// documents.go — HTTP handlers файловых операций Document Module.
// Upload, группированный листинг, скачивание, удаление.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/eteeap/document-module/internal/api/errors"
	"github.com/eteeap/document-module/internal/api/middleware"
	"github.com/eteeap/document-module/internal/domain/model"
	"github.com/eteeap/document-module/internal/service"
)

// DocumentStore — операции хранилища документов, нужные обработчикам.
// Реализуется service.DocumentStore.
type DocumentStore interface {
	Put(ctx context.Context, params service.UploadParams) (*model.StoredFile, error)
	FindByID(ctx context.Context, fileID string) (*model.StoredFile, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.StoredFile, error)
	OpenRead(ctx context.Context, fileID string) (*model.StoredFile, io.ReadCloser, error)
	Delete(ctx context.Context, fileID string) error
}

// AccessChecker — проверка прав доступа.
// Реализуется service.AccessEvaluator.
type AccessChecker interface {
	CanRead(ctx context.Context, p *model.Principal, ownerID string) error
	CanDelete(p *model.Principal, ownerID string) error
}

// DocumentsHandler — обработчик документных endpoints.
type DocumentsHandler struct {
	store       DocumentStore
	access      AccessChecker
	maxFileSize int64
	debugErrors bool
	logger      *slog.Logger
}

// NewDocumentsHandler создаёт обработчик документных endpoints.
func NewDocumentsHandler(
	store DocumentStore,
	access AccessChecker,
	maxFileSize int64,
	debugErrors bool,
	logger *slog.Logger,
) *DocumentsHandler {
	return &DocumentsHandler{
		store:       store,
		access:      access,
		maxFileSize: maxFileSize,
		debugErrors: debugErrors,
		logger:      logger.With(slog.String("component", "documents_handler")),
	}
}

// uploadResponse — ответ на загрузку документов.
type uploadResponse struct {
	Success bool                `json:"success"`
	Files   []model.FileSummary `json:"files"`
}

// listResponse — ответ группированного листинга.
type listResponse struct {
	Success bool                           `json:"success"`
	Files   map[string][]model.FileSummary `json:"files"`
}

// Upload обрабатывает POST /api/v1/documents.
// Multipart form: files (одно или несколько), label (опционально),
// category (опционально). Доступно только абитуриентам; владельцем
// всегда становится аутентифицированный субъект.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}
	if p.Role != model.RoleApplicant {
		apierrors.Forbidden(w)
		return
	}

	// Ограничиваем тело запроса: максимальный размер файла + запас на
	// multipart-заголовки и текстовые поля
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+(32<<20))

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32 MB buffer
		apierrors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}

	label := r.FormValue("label")
	category := r.FormValue("category")

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		apierrors.ValidationError(w, "Поле 'files' обязательно")
		return
	}

	summaries := make([]model.FileSummary, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		if header.Size > h.maxFileSize {
			apierrors.ValidationError(w, fmt.Sprintf(
				"Размер файла %d байт превышает максимум %d байт", header.Size, h.maxFileSize))
			return
		}

		file, err := header.Open()
		if err != nil {
			apierrors.ValidationError(w, fmt.Sprintf("Ошибка чтения части '%s'", header.Filename))
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		doc, err := h.store.Put(r.Context(), service.UploadParams{
			Reader:           file,
			OwnerID:          p.SubjectID,
			OriginalFilename: header.Filename,
			ContentType:      contentType,
			Label:            label,
			Category:         category,
		})
		file.Close()
		if err != nil {
			h.logger.Error("Ошибка сохранения документа",
				slog.String("owner_id", p.SubjectID),
				slog.String("filename", header.Filename),
				slog.String("error", err.Error()),
			)
			apierrors.StorageError(w, err.Error(), h.debugErrors)
			return
		}

		summaries = append(summaries, doc.Summary())
	}

	writeJSON(w, http.StatusCreated, uploadResponse{Success: true, Files: summaries})
}

// ListOwnerDocuments обрабатывает GET /api/v1/owners/{ownerId}/documents.
// Возвращает документы владельца, сгруппированные по меткам.
// Пустой набор документов — успех с пустой группировкой.
func (h *DocumentsHandler) ListOwnerDocuments(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	ownerID := chi.URLParam(r, "ownerId")
	if _, err := uuid.Parse(ownerID); err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор владельца")
		return
	}

	if err := h.access.CanRead(r.Context(), p, ownerID); err != nil {
		switch {
		case errors.Is(err, service.ErrOwnerNotFound):
			apierrors.NotFound(w)
		case errors.Is(err, service.ErrForbidden):
			apierrors.Forbidden(w)
		default:
			h.logger.Error("Ошибка проверки доступа",
				slog.String("owner_id", ownerID),
				slog.String("error", err.Error()),
			)
			apierrors.StorageError(w, err.Error(), h.debugErrors)
		}
		return
	}

	files, err := h.store.ListByOwner(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("Ошибка выборки документов",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		apierrors.StorageError(w, err.Error(), h.debugErrors)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Success: true, Files: service.GroupByLabel(files)})
}

// Download обрабатывает GET /api/v1/documents/{fileId}.
// Query-параметр disposition: inline или attachment (по умолчанию).
// Файл, невидимый для субъекта, неотличим от несуществующего (404).
func (h *DocumentsHandler) Download(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	fileID := chi.URLParam(r, "fileId")
	if _, err := uuid.Parse(fileID); err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор документа")
		return
	}

	disposition := r.URL.Query().Get("disposition")
	switch disposition {
	case "":
		disposition = "attachment"
	case "inline", "attachment":
		// ok
	default:
		apierrors.ValidationError(w, "Параметр disposition: inline или attachment")
		return
	}

	doc, ok := h.resolveVisible(w, r, p, fileID)
	if !ok {
		return
	}

	_, rc, err := h.store.OpenRead(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w)
			return
		}
		h.logger.Error("Ошибка открытия содержимого",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.StorageError(w, err.Error(), h.debugErrors)
		return
	}
	defer rc.Close()

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(doc.SizeBytes, 10))
	w.Header().Set("Content-Disposition", contentDisposition(disposition, doc.Filename))
	w.WriteHeader(http.StatusOK)

	written, err := io.Copy(w, contextReader{ctx: r.Context(), r: rc})
	if err != nil {
		// Заголовки уже отправлены — ответ прерывается без success-тела
		h.logger.Error("Ошибка streaming download",
			slog.String("file_id", fileID),
			slog.Int64("bytes_written", written),
			slog.String("error", err.Error()),
		)
		return
	}

	h.logger.Debug("Download завершён",
		slog.String("file_id", fileID),
		slog.Int64("bytes", written),
	)
}

// Delete обрабатывает DELETE /api/v1/documents/{fileId}.
// Невидимый документ — 404; видимый, но не подлежащий удалению
// (эксперт) — 403. Успех — 204 без тела.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	fileID := chi.URLParam(r, "fileId")
	if _, err := uuid.Parse(fileID); err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор документа")
		return
	}

	doc, ok := h.resolveVisible(w, r, p, fileID)
	if !ok {
		return
	}

	if err := h.access.CanDelete(p, doc.OwnerID); err != nil {
		apierrors.Forbidden(w)
		return
	}

	if err := h.store.Delete(r.Context(), fileID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w)
			return
		}
		h.logger.Error("Ошибка удаления документа",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.StorageError(w, err.Error(), h.debugErrors)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// resolveVisible находит документ и проверяет право чтения.
// Несуществующий и запрещённый документы дают байт-в-байт одинаковый
// 404 — существование файла не раскрывается. Возвращает (doc, true)
// при успехе; при false ответ уже записан.
func (h *DocumentsHandler) resolveVisible(
	w http.ResponseWriter,
	r *http.Request,
	p *model.Principal,
	fileID string,
) (*model.StoredFile, bool) {
	doc, err := h.store.FindByID(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w)
			return nil, false
		}
		h.logger.Error("Ошибка поиска документа",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.StorageError(w, err.Error(), h.debugErrors)
		return nil, false
	}

	if err := h.access.CanRead(r.Context(), p, doc.OwnerID); err != nil {
		if errors.Is(err, service.ErrForbidden) || errors.Is(err, service.ErrOwnerNotFound) {
			apierrors.NotFound(w)
			return nil, false
		}
		h.logger.Error("Ошибка проверки доступа",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.StorageError(w, err.Error(), h.debugErrors)
		return nil, false
	}

	return doc, true
}

// contentDisposition строит заголовок Content-Disposition с RFC 5987
// кодированием имени файла (filename*=UTF-8''...) и ASCII-fallback.
func contentDisposition(disposition, filename string) string {
	fallback := asciiFallback(filename)
	encoded := url.PathEscape(filename)
	return fmt.Sprintf(`%s; filename="%s"; filename*=UTF-8''%s`, disposition, fallback, encoded)
}

// asciiFallback заменяет не-ASCII и спецсимволы имени файла на '_'.
func asciiFallback(filename string) string {
	var b strings.Builder
	for _, r := range filename {
		if r > 0x20 && r < 0x7F && r != '"' && r != '\\' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}

// contextReader прерывает чтение при отмене контекста запроса —
// отключение клиента останавливает копирование и освобождает файл.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
