// Пакет model — доменные модели Document Module.
// StoredFile — единая структура метаданных загруженного документа,
// соответствует строке таблицы document_registry.
package model

import (
	"time"
)

// Role — роль субъекта в системе ETEEAP.
type Role string

const (
	// RoleApplicant — абитуриент, владелец собственных документов
	RoleApplicant Role = "applicant"
	// RoleAssessor — эксперт, видит документы назначенных абитуриентов
	RoleAssessor Role = "assessor"
	// RoleAdmin — администратор, полная видимость
	RoleAdmin Role = "admin"
)

// ValidRole проверяет, что строка — одна из известных ролей.
func ValidRole(r Role) bool {
	switch r {
	case RoleApplicant, RoleAssessor, RoleAdmin:
		return true
	}
	return false
}

// Principal — аутентифицированный субъект запроса.
// Создаётся JWT middleware из верифицированного токена, живёт только
// в контексте запроса и никогда не персистится.
type Principal struct {
	// SubjectID — идентификатор субъекта (sub из JWT)
	SubjectID string
	// Role — роль субъекта (claim "role")
	Role Role
	// ExpiresAt — время истечения токена
	ExpiresAt time.Time
}

// DefaultLabel — метка документа, если абитуриент её не указал.
const DefaultLabel = "others"

// StoredFile — метаданные одного загруженного документа.
// Бинарное содержимое лежит на диске (StoragePath), метаданные — в
// document_registry. Запись неизменяема после создания, кроме удаления.
type StoredFile struct {
	// ID — UUID документа, генерируется хранилищем при загрузке
	ID string
	// OwnerID — UUID абитуриента-владельца. Единственный предикат владения.
	OwnerID string
	// Filename — оригинальное имя файла при загрузке (не уникально)
	Filename string
	// ContentType — MIME-тип, отдаётся в Content-Type как есть
	ContentType string
	// SizeBytes — размер содержимого в байтах
	SizeBytes int64
	// Checksum — SHA-256 хэш содержимого
	Checksum string
	// Label — свободная метка группировки ("transcript", "resume", ...)
	Label string
	// Category — вторичная классификация, может быть пустой
	Category string
	// StoragePath — имя файла на диске относительно DM_DATA_DIR.
	// Внутреннее поле, в API-ответы не попадает.
	StoragePath string
	// UploadedAt — время загрузки (UTC), неизменяемо
	UploadedAt time.Time
}

// EffectiveLabel возвращает метку документа с учётом значения по умолчанию.
func (f *StoredFile) EffectiveLabel() string {
	if f.Label == "" {
		return DefaultLabel
	}
	return f.Label
}

// FileSummary — представление документа в листингах: без содержимого
// и без внутренних полей.
type FileSummary struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	UploadedAt  time.Time `json:"uploadedAt"`
	Label       string    `json:"label"`
}

// Summary строит FileSummary из метаданных документа.
func (f *StoredFile) Summary() FileSummary {
	return FileSummary{
		ID:          f.ID,
		Filename:    f.Filename,
		ContentType: f.ContentType,
		SizeBytes:   f.SizeBytes,
		UploadedAt:  f.UploadedAt,
		Label:       f.EffectiveLabel(),
	}
}
