package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"alfredoptarigan/candidate-screener/internal/models"
)

type StorageService interface {
	SaveFile(file *multipart.FileHeader, prefix string) (models.UploadedFile, error)
	ReadFile(storedName string) ([]byte, error)
	DeleteFile(storedName string) error
	EnsureUploadDir() error
}

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{
		uploadPath: uploadPath,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

func (s *storageService) SaveFile(file *multipart.FileHeader, prefix string) (models.UploadedFile, error) {
	// any type is kept; the parser decides per file whether it can be read
	ext := strings.ToLower(filepath.Ext(file.Filename))
	storedName := fmt.Sprintf("%s_%s%s", prefix, uuid.New().String(), ext)

	src, err := file.Open()
	if err != nil {
		return models.UploadedFile{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(s.path(storedName))
	if err != nil {
		return models.UploadedFile{}, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return models.UploadedFile{}, fmt.Errorf("failed to save file: %w", err)
	}

	return models.UploadedFile{
		StoredName:   storedName,
		OriginalName: filepath.Base(file.Filename),
	}, nil
}

func (s *storageService) ReadFile(storedName string) ([]byte, error) {
	data, err := os.ReadFile(s.path(storedName))
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}
	return data, nil
}

func (s *storageService) DeleteFile(storedName string) error {
	if err := os.Remove(s.path(storedName)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// path confines stored names to the upload directory.
func (s *storageService) path(storedName string) string {
	return filepath.Join(s.uploadPath, filepath.Base(storedName))
}
