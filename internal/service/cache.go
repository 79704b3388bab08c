package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eteeap/document-module/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш метаданных.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша метаданных.",
	})
)

// MetadataCache — LRU-кэш метаданных документов с автоматическим TTL.
// Кэшируются только неизменяемые записи StoredFile; решения о доступе
// никогда не кэшируются. Запись инвалидируется при удалении документа.
type MetadataCache struct {
	cache *expirable.LRU[string, *model.StoredFile]
}

// NewMetadataCache создаёт LRU-кэш с указанным максимальным размером и TTL.
// maxSize — максимальное количество записей в кэше.
// ttl — время жизни записи после добавления.
func NewMetadataCache(maxSize int, ttl time.Duration) *MetadataCache {
	cache := expirable.NewLRU[string, *model.StoredFile](maxSize, nil, ttl)
	return &MetadataCache{cache: cache}
}

// Get возвращает StoredFile из кэша по fileID.
// Возвращает (запись, true) при hit или (nil, false) при miss.
// Обновляет Prometheus-метрики hit/miss.
func (c *MetadataCache) Get(fileID string) (*model.StoredFile, bool) {
	val, ok := c.cache.Get(fileID)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *MetadataCache) Set(fileID string, doc *model.StoredFile) {
	c.cache.Add(fileID, doc)
}

// Delete удаляет запись из кэша (инвалидация при удалении документа).
func (c *MetadataCache) Delete(fileID string) {
	c.cache.Remove(fileID)
}
