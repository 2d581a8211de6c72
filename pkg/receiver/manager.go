package receiver

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Manager реестр именованных приёмников для внешнего командного слоя
// (CLI, shell). Явная замена глобального указателя на активный приёмник:
// командный слой получает ссылку на Manager, внутри ядра процессных
// синглтонов нет.
type Manager struct {
	receivers map[string]*Receiver
	mutex     sync.RWMutex

	maxReceivers int
}

// ManagerConfig конфигурация реестра приёмников
type ManagerConfig struct {
	MaxReceivers int // Максимальное количество одновременных приёмников
}

// DefaultManagerConfig возвращает конфигурацию по умолчанию
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MaxReceivers: 16,
	}
}

// NewManager создает реестр приёмников
func NewManager(config ManagerConfig) *Manager {
	if config.MaxReceivers == 0 {
		config = DefaultManagerConfig()
	}
	return &Manager{
		receivers:    make(map[string]*Receiver),
		maxReceivers: config.MaxReceivers,
	}
}

// Create создает и регистрирует приёмник. Пустой id заменяется
// сгенерированным UUID; возвращается итоговый идентификатор.
func (m *Manager) Create(id string, config Config) (string, *Receiver, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if len(m.receivers) >= m.maxReceivers {
		return "", nil, fmt.Errorf("достигнут лимит приёмников: %d", m.maxReceivers)
	}

	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := m.receivers[id]; exists {
		return "", nil, fmt.Errorf("приёмник с ID %s уже существует", id)
	}

	r, err := New(config)
	if err != nil {
		return "", nil, fmt.Errorf("ошибка создания приёмника: %w", err)
	}

	m.receivers[id] = r
	return id, r, nil
}

// Get возвращает приёмник по идентификатору
func (m *Manager) Get(id string) (*Receiver, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	r, exists := m.receivers[id]
	return r, exists
}

// Remove останавливает приёмник и удаляет его из реестра
func (m *Manager) Remove(id string) error {
	m.mutex.Lock()
	r, exists := m.receivers[id]
	if exists {
		delete(m.receivers, id)
	}
	m.mutex.Unlock()

	if !exists {
		return fmt.Errorf("приёмник с ID %s не найден", id)
	}
	return r.Stop()
}

// List возвращает идентификаторы зарегистрированных приёмников
func (m *Manager) List() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	ids := make([]string, 0, len(m.receivers))
	for id := range m.receivers {
		ids = append(ids, id)
	}
	return ids
}

// StopAll останавливает все приёмники и очищает реестр.
// Возвращает первую встреченную ошибку.
func (m *Manager) StopAll() error {
	m.mutex.Lock()
	receivers := make([]*Receiver, 0, len(m.receivers))
	for _, r := range m.receivers {
		receivers = append(receivers, r)
	}
	m.receivers = make(map[string]*Receiver)
	m.mutex.Unlock()

	var firstErr error
	for _, r := range receivers {
		if err := r.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
