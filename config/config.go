package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// MaxPageSize is the largest page the Gmail list call accepts.
const MaxPageSize = 500

// ErrInvalid is returned by Validate for settings a run cannot use.
var ErrInvalid = errors.New("invalid settings")

// Settings defines how a fetch run pages through the mailbox and where it
// keeps its files.
type Settings struct {
	PageSize        int    `json:"page_size"`
	TotalLimit      int    `json:"total_limit"` // 0 means no limit
	OutputDir       string `json:"output_dir"`
	CredentialsFile string `json:"credentials_file"`
	TokenFile       string `json:"token_file"`
	LogFile         string `json:"log_file"`
	User            string `json:"user"`
}

// Defaults returns the settings used when no file exists yet.
func Defaults() Settings {
	return Settings{
		PageSize:        500,
		TotalLimit:      68500,
		OutputDir:       "generated_output",
		CredentialsFile: "credentials.json",
		TokenFile:       "token.json",
		LogFile:         "mailpull.log",
		User:            "me",
	}
}

// Validate reports whether s can drive a run.
func (s Settings) Validate() error {
	if s.PageSize < 1 || s.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page_size must be between 1 and %d, got %d", ErrInvalid, MaxPageSize, s.PageSize)
	}
	if s.TotalLimit < 0 {
		return fmt.Errorf("%w: total_limit must not be negative, got %d", ErrInvalid, s.TotalLimit)
	}
	if s.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is empty", ErrInvalid)
	}
	return nil
}

// Manager handles loading, saving, and accessing settings.
type Manager struct {
	filePath string
	settings Settings
	mu       sync.RWMutex
}

// NewManager loads settings from filePath, creating the file with
// defaults when it does not exist.
func NewManager(filePath string) (*Manager, error) {
	m := &Manager{
		filePath: filePath,
		settings: Defaults(),
	}
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads settings from the JSON file. Fields absent from the file keep
// their default values.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.settings = Defaults()
			return m.save()
		}
		return fmt.Errorf("read settings: %w", err)
	}

	s := Defaults()
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parse settings %s: %w", m.filePath, err)
	}
	m.settings = s
	return nil
}

// save writes the current settings to the JSON file.
// Callers must hold the lock.
func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.settings, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(m.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}
	return os.WriteFile(m.filePath, data, 0644)
}

// Get returns a copy of the current settings.
func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Update applies fn to the settings and keeps the result in memory only.
func (m *Manager) Update(fn func(*Settings)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.settings)
}

// ApplyEnv loads envFile (when present) into the environment and lets
// environment variables override the file settings.
func (m *Manager) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if v := os.Getenv("API_CREDENTIALS_FILE"); v != "" {
		m.settings.CredentialsFile = v
	}
	if v := os.Getenv("MAILPULL_TOKEN_FILE"); v != "" {
		m.settings.TokenFile = v
	}
	if v := os.Getenv("MAILPULL_OUTPUT_DIR"); v != "" {
		m.settings.OutputDir = v
	}
	if err := envInt("MAILPULL_PAGE_SIZE", &m.settings.PageSize); err != nil {
		return err
	}
	return envInt("MAILPULL_TOTAL_LIMIT", &m.settings.TotalLimit)
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, key, v)
	}
	*dst = n
	return nil
}
