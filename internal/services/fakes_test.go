package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"sync"
	"time"

	"alfredoptarigan/candidate-screener/internal/models"
)

const validAssessment = `{
  "education": {"evidence": "BSc Computer Science", "score": 4},
  "experience": {"evidence": "3 years backend", "score": 4},
  "skills": {"evidence": "Go, PostgreSQL", "score": 4},
  "projects": {"evidence": "open source CLI", "score": 3},
  "certifications": {"evidence": "none", "score": 2},
  "extracted_skills": ["Go", "PostgreSQL", "Docker"],
  "summary": "Solid backend engineer."
}`

// scriptedOracle answers by the task header on the first prompt line and
// records how many calls overlapped.
type scriptedOracle struct {
	mu          sync.Mutex
	replies     map[string]func(prompt string) (string, error)
	calls       map[string]int
	inFlight    int
	maxInFlight int
	delay       time.Duration
}

func newScriptedOracle() *scriptedOracle {
	return &scriptedOracle{
		replies: map[string]func(string) (string, error){},
		calls:   map[string]int{},
	}
}

func (o *scriptedOracle) on(task, reply string) *scriptedOracle {
	o.replies[task] = func(string) (string, error) { return reply, nil }
	return o
}

func (o *scriptedOracle) fail(task string) *scriptedOracle {
	o.replies[task] = func(string) (string, error) { return "", errors.New("oracle unavailable") }
	return o
}

func (o *scriptedOracle) GenerateText(ctx context.Context, prompt string, _ float32) (string, error) {
	task, _, _ := strings.Cut(prompt, "\n")

	o.mu.Lock()
	o.calls[task]++
	o.inFlight++
	if o.inFlight > o.maxInFlight {
		o.maxInFlight = o.inFlight
	}
	reply := o.replies[task]
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight--
		o.mu.Unlock()
	}()

	if o.delay > 0 {
		select {
		case <-time.After(o.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if reply == nil {
		return "", fmt.Errorf("no scripted reply for %q", task)
	}
	return reply(prompt)
}

func (o *scriptedOracle) callCount(task string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls[task]
}

func (o *scriptedOracle) peak() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.maxInFlight
}

// memoryStorage keeps uploaded files in a map keyed by stored name.
type memoryStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: map[string][]byte{}}
}

func (m *memoryStorage) put(name, content string) models.UploadedFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := "stored_" + name
	m.files[stored] = []byte(content)
	return models.UploadedFile{StoredName: stored, OriginalName: name}
}

func (m *memoryStorage) SaveFile(*multipart.FileHeader, string) (models.UploadedFile, error) {
	return models.UploadedFile{}, errors.New("not supported")
}

func (m *memoryStorage) ReadFile(storedName string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[storedName]
	if !ok {
		return nil, fmt.Errorf("file %s not found", storedName)
	}
	return data, nil
}

func (m *memoryStorage) DeleteFile(storedName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, storedName)
	m.deleted = append(m.deleted, storedName)
	return nil
}

func (m *memoryStorage) EnsureUploadDir() error { return nil }

// plainParser returns file contents as text, except for files named
// broken.pdf which yield nothing.
type plainParser struct{}

func (plainParser) Parse(data []byte, filename string) (string, error) {
	if filename == "broken.pdf" {
		return "", nil
	}
	return string(data), nil
}
