// Пакет profileclient — HTTP-клиент сервиса профилей абитуриентов.
// Document Module запрашивает профиль при каждой проверке доступа:
// решения о доступе не кэшируются, отзыв назначения действует немедленно.
package profileclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrNotFound — профиль абитуриента не найден.
var ErrNotFound = errors.New("профиль не найден")

// ApplicantProfile — профиль абитуриента (из API сервиса профилей).
type ApplicantProfile struct {
	// ID — идентификатор абитуриента
	ID string `json:"id"`
	// AssignedAssessors — идентификаторы назначенных экспертов
	AssignedAssessors []string `json:"assigned_assessors"`
}

// HasAssessor проверяет, назначен ли эксперт данному абитуриенту.
func (p *ApplicantProfile) HasAssessor(assessorID string) bool {
	for _, id := range p.AssignedAssessors {
		if id == assessorID {
			return true
		}
	}
	return false
}

// Client — HTTP-клиент сервиса профилей.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

// New создаёт клиент сервиса профилей.
// baseURL — базовый URL сервиса (например, http://profile-service:8030).
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
// token — статический сервисный токен (пустая строка — без авторизации).
func New(
	baseURL string,
	caCertPath string,
	token string,
	timeout time.Duration,
	logger *slog.Logger,
) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата сервиса профилей: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат сервиса профилей добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		logger:     logger.With(slog.String("component", "profile_client")),
	}, nil
}

// GetApplicant запрашивает профиль абитуриента по ID.
// GET /api/v1/applicants/{id}
// Возвращает ErrNotFound если сервис ответил 404.
func (c *Client) GetApplicant(ctx context.Context, applicantID string) (*ApplicantProfile, error) {
	reqURL := fmt.Sprintf("%s/api/v1/applicants/%s", c.baseURL, applicantID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("создание запроса GetApplicant: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("запрос GetApplicant к %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// продолжаем
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("сервис профилей вернул статус %d для %s: %s",
			resp.StatusCode, applicantID, string(body))
	}

	var profile ApplicantProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("декодирование профиля: %w", err)
	}

	return &profile, nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}
