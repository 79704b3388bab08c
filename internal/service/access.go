// Пакет service — бизнес-логика Document Module:
// проверка прав доступа, хранение документов, группировка листингов.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eteeap/document-module/internal/domain/model"
	"github.com/eteeap/document-module/internal/profileclient"
)

// Ошибки проверки доступа.
var (
	// ErrOwnerNotFound — владелец документов не существует.
	ErrOwnerNotFound = errors.New("владелец не найден")
	// ErrForbidden — доступ запрещён для данной роли/субъекта.
	ErrForbidden = errors.New("доступ запрещён")
)

// AssignmentSource — источник назначений эксперт↔абитуриент.
// Реализуется profileclient.Client. Результаты НЕ кэшируются:
// отзыв назначения действует с первого же запроса.
type AssignmentSource interface {
	GetApplicant(ctx context.Context, applicantID string) (*profileclient.ApplicantProfile, error)
}

// AccessEvaluator — проверка прав доступа к документам владельца.
// Правила:
//   - admin: читает документы любого существующего владельца;
//   - applicant: читает только собственные документы;
//   - assessor: читает документы абитуриентов из своего списка назначений.
//
// Всё остальное — запрещено (deny by default).
type AccessEvaluator struct {
	assignments AssignmentSource
	logger      *slog.Logger
}

// NewAccessEvaluator создаёт проверку прав доступа.
func NewAccessEvaluator(assignments AssignmentSource, logger *slog.Logger) *AccessEvaluator {
	return &AccessEvaluator{
		assignments: assignments,
		logger:      logger.With(slog.String("component", "access")),
	}
}

// CanRead проверяет право principal читать документы владельца ownerID.
// Владелец всегда резолвится через сервис профилей — даже для admin
// и для самого владельца: несуществующий владелец даёт ErrOwnerNotFound
// независимо от роли.
// Возвращает nil, ErrOwnerNotFound, ErrForbidden или ошибку источника.
func (e *AccessEvaluator) CanRead(ctx context.Context, p *model.Principal, ownerID string) error {
	profile, err := e.assignments.GetApplicant(ctx, ownerID)
	if err != nil {
		if errors.Is(err, profileclient.ErrNotFound) {
			return ErrOwnerNotFound
		}
		return fmt.Errorf("ошибка получения профиля владельца: %w", err)
	}

	switch p.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleApplicant:
		if p.SubjectID == ownerID {
			return nil
		}
	case model.RoleAssessor:
		if profile.HasAssessor(p.SubjectID) {
			return nil
		}
	}

	e.logger.Debug("Доступ на чтение запрещён",
		slog.String("subject", p.SubjectID),
		slog.String("role", string(p.Role)),
		slog.String("owner", ownerID),
	)
	return ErrForbidden
}

// CanDelete проверяет право principal удалить документ владельца ownerID.
// Удаление разрешено admin и самому владельцу-абитуриенту.
// Эксперты документов не удаляют никогда, включая назначенных.
// Чистая проверка ролей — сервис профилей не вызывается.
func (e *AccessEvaluator) CanDelete(p *model.Principal, ownerID string) error {
	switch p.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleApplicant:
		if p.SubjectID == ownerID {
			return nil
		}
	}

	e.logger.Debug("Доступ на удаление запрещён",
		slog.String("subject", p.SubjectID),
		slog.String("role", string(p.Role)),
		slog.String("owner", ownerID),
	)
	return ErrForbidden
}
