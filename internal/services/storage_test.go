package services

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartFile(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("resumes", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["resumes"][0]
}

func TestStorageService_SaveReadDelete(t *testing.T) {
	storage := NewStorageService(t.TempDir())
	require.NoError(t, storage.EnsureUploadDir())

	saved, err := storage.SaveFile(multipartFile(t, "Jane Doe.txt", "Go developer"), "job")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe.txt", saved.OriginalName)
	assert.True(t, strings.HasPrefix(saved.StoredName, "job_"))
	assert.True(t, strings.HasSuffix(saved.StoredName, ".txt"))

	data, err := storage.ReadFile(saved.StoredName)
	require.NoError(t, err)
	assert.Equal(t, "Go developer", string(data))

	require.NoError(t, storage.DeleteFile(saved.StoredName))
	_, err = storage.ReadFile(saved.StoredName)
	assert.Error(t, err)
}

func TestStorageService_KeepsAnyExtension(t *testing.T) {
	storage := NewStorageService(t.TempDir())

	saved, err := storage.SaveFile(multipartFile(t, "CV.DOCX", "PK\x03\x04"), "job")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(saved.StoredName, ".docx"))

	data, err := storage.ReadFile(saved.StoredName)
	require.NoError(t, err)
	assert.Equal(t, "PK\x03\x04", string(data))
}

func TestStorageService_ConfinesPaths(t *testing.T) {
	dir := t.TempDir()
	storage := NewStorageService(dir)

	saved, err := storage.SaveFile(multipartFile(t, "cv.txt", "text"), "job")
	require.NoError(t, err)

	data, err := storage.ReadFile("../../" + saved.StoredName)
	require.NoError(t, err)
	assert.Equal(t, "text", string(data))
}
