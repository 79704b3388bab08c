package service

import (
	"testing"
	"time"

	"github.com/eteeap/document-module/internal/domain/model"
)

// TestMetadataCache_GetSet проверяет базовые операции Get/Set.
func TestMetadataCache_GetSet(t *testing.T) {
	cache := NewMetadataCache(100, 5*time.Minute)

	doc := &model.StoredFile{
		ID:          "doc-uuid-1",
		OwnerID:     "app-1",
		Filename:    "transcript.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
	}

	// Cache miss
	_, ok := cache.Get("doc-uuid-1")
	if ok {
		t.Fatal("ожидался cache miss для нового ключа")
	}

	// Set + cache hit
	cache.Set("doc-uuid-1", doc)
	got, ok := cache.Get("doc-uuid-1")
	if !ok {
		t.Fatal("ожидался cache hit после Set")
	}
	if got.ID != "doc-uuid-1" {
		t.Errorf("ID = %q, ожидался %q", got.ID, "doc-uuid-1")
	}
	if got.Filename != "transcript.pdf" {
		t.Errorf("Filename = %q, ожидался %q", got.Filename, "transcript.pdf")
	}
}

// TestMetadataCache_Delete проверяет инвалидацию при удалении документа.
func TestMetadataCache_Delete(t *testing.T) {
	cache := NewMetadataCache(100, 5*time.Minute)

	cache.Set("delete-me", &model.StoredFile{ID: "delete-me"})

	_, ok := cache.Get("delete-me")
	if !ok {
		t.Fatal("ожидался cache hit перед удалением")
	}

	cache.Delete("delete-me")

	_, ok = cache.Get("delete-me")
	if ok {
		t.Fatal("ожидался cache miss после Delete")
	}
}

// TestMetadataCache_TTLExpiration проверяет автоматическое истечение TTL.
func TestMetadataCache_TTLExpiration(t *testing.T) {
	// Короткий TTL = 50ms для теста
	cache := NewMetadataCache(100, 50*time.Millisecond)

	cache.Set("ttl-test", &model.StoredFile{ID: "ttl-test"})

	_, ok := cache.Get("ttl-test")
	if !ok {
		t.Fatal("ожидался cache hit сразу после Set")
	}

	time.Sleep(100 * time.Millisecond)

	_, ok = cache.Get("ttl-test")
	if ok {
		t.Fatal("ожидался cache miss после истечения TTL")
	}
}
