package detector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cyclopcam/logs"
)

// Manager owns the detector entities, and fans detection results out to
// watchers (eg websocket streams).
type Manager struct {
	log logs.Log

	detectorsLock sync.Mutex
	detectors     map[string]*Detector

	watchersLock sync.RWMutex
	watchers     map[string][]chan *Result
	watchersAll  []chan *Result
}

func NewManager(logger logs.Log) *Manager {
	return &Manager{
		log:       logger,
		detectors: map[string]*Detector{},
		watchers:  map[string][]chan *Result{},
	}
}

// Add registers a detector entity. Entity names are unique.
func (m *Manager) Add(d *Detector) error {
	m.detectorsLock.Lock()
	defer m.detectorsLock.Unlock()
	if _, exists := m.detectors[d.Name()]; exists {
		return fmt.Errorf("Detector '%v' already exists", d.Name())
	}
	m.detectors[d.Name()] = d
	return nil
}

// Get returns the named detector, or nil.
func (m *Manager) Get(name string) *Detector {
	m.detectorsLock.Lock()
	defer m.detectorsLock.Unlock()
	return m.detectors[name]
}

// All returns the detectors, sorted by name.
func (m *Manager) All() []*Detector {
	m.detectorsLock.Lock()
	defer m.detectorsLock.Unlock()
	all := make([]*Detector, 0, len(m.detectors))
	for _, d := range m.detectors {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })
	return all
}

// ProcessImage runs one image through the named detector, and sends the
// result to watchers.
func (m *Manager) ProcessImage(name string, image []byte) (*Result, error) {
	d := m.Get(name)
	if d == nil {
		return nil, fmt.Errorf("No such detector '%v'", name)
	}
	result, err := d.ProcessImage(image)
	if err != nil {
		return nil, err
	}
	m.sendToWatchers(result)
	return result, nil
}
