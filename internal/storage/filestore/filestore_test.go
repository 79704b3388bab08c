package filestore

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNew_CreatesDirectory проверяет создание директории данных.
func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	fs, err := New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	if fs.DataDir() != dir {
		t.Errorf("ожидался путь %s, получен %s", dir, fs.DataDir())
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("директория не создана: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("путь не является директорией")
	}
}

// TestSaveFile проверяет сохранение файла с подсчётом SHA-256.
func TestSaveFile(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	content := []byte("Тестовое содержимое документа абитуриента.")
	reader := bytes.NewReader(content)

	result, err := fs.SaveFile(reader, "transcript.pdf", "a1b2c3d4")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if result.Size != int64(len(content)) {
		t.Errorf("размер: ожидалось %d, получено %d", len(content), result.Size)
	}

	expectedHash := sha256.Sum256(content)
	expectedChecksum := hex.EncodeToString(expectedHash[:])
	if result.Checksum != expectedChecksum {
		t.Errorf("checksum: ожидалось %s, получено %s", expectedChecksum, result.Checksum)
	}

	if !fs.FileExists(result.StoragePath) {
		t.Error("файл не найден на диске")
	}

	if !strings.Contains(result.StoragePath, "transcript") {
		t.Errorf("имя файла должно содержать оригинальное имя: %s", result.StoragePath)
	}
	if !strings.HasSuffix(result.StoragePath, ".pdf") {
		t.Errorf("имя файла должно сохранять расширение: %s", result.StoragePath)
	}
}

// TestSaveFile_ReadBack проверяет побайтовое совпадение при чтении.
func TestSaveFile_ReadBack(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	content := bytes.Repeat([]byte("abcdef0123456789"), 4096)
	result, err := fs.SaveFile(bytes.NewReader(content), "big.bin", "owner")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	f, err := fs.ReadFile(result.StoragePath)
	if err != nil {
		t.Fatalf("ошибка открытия: %v", err)
	}
	defer f.Close()

	readBack, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ошибка чтения: %v", err)
	}
	if !bytes.Equal(readBack, content) {
		t.Error("прочитанное содержимое не совпадает с записанным")
	}
}

// failingReader — reader, возвращающий ошибку после части данных.
type failingReader struct {
	data []byte
	pos  int
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, errors.New("обрыв соединения")
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// TestSaveFile_InterruptedStream проверяет, что прерванная запись
// не оставляет ни финального, ни временного файла.
func TestSaveFile_InterruptedStream(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	_, err = fs.SaveFile(&failingReader{data: []byte("partial data")}, "broken.pdf", "owner")
	if err == nil {
		t.Fatal("ожидалась ошибка при обрыве потока")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ошибка чтения директории: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("директория должна быть пустой после обрыва, найдено %d файлов", len(entries))
	}
}

// TestDeleteFile проверяет удаление файла и идемпотентность.
func TestDeleteFile(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	result, err := fs.SaveFile(bytes.NewReader([]byte("data")), "doc.txt", "owner")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if err := fs.DeleteFile(result.StoragePath); err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}
	if fs.FileExists(result.StoragePath) {
		t.Error("файл существует после удаления")
	}

	// Повторное удаление — не ошибка
	if err := fs.DeleteFile(result.StoragePath); err != nil {
		t.Errorf("повторное удаление должно быть идемпотентным: %v", err)
	}
}

// TestReadFile_NotFound проверяет чтение несуществующего файла.
func TestReadFile_NotFound(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	if _, err := fs.ReadFile("no-such-file.pdf"); err == nil {
		t.Error("ожидалась ошибка для несуществующего файла")
	}
}

// TestGenerateStorageName проверяет санитизацию имён.
func TestGenerateStorageName(t *testing.T) {
	name := generateStorageName("../../etc/passwd", "own/../er")
	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		t.Errorf("имя содержит небезопасные символы: %s", name)
	}

	name = generateStorageName("", "")
	if name == "" {
		t.Error("имя не должно быть пустым")
	}
}
