package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/guillermoBallester/querylog/internal/core/port"
)

var ErrUnknownConnection = errors.New("unknown connection")

// Manager opens named connections lazily and caches them until dropped.
// All connections share the Manager's LogSettings.
type Manager struct {
	mu          sync.Mutex
	specs       map[string]port.ConnectionSpec
	defaultName string
	opener      port.StoreOpener
	settings    *LogSettings
	opts        []Option
	specOpts    func(port.ConnectionSpec) []Option
	conns       map[string]*Connection
}

func NewManager(specs []port.ConnectionSpec, defaultName string, opener port.StoreOpener, settings *LogSettings, opts ...Option) *Manager {
	m := &Manager{
		specs:       make(map[string]port.ConnectionSpec, len(specs)),
		defaultName: defaultName,
		opener:      opener,
		settings:    settings,
		opts:        opts,
		conns:       make(map[string]*Connection),
	}
	for _, s := range specs {
		m.specs[s.Name] = s
	}
	return m
}

// WithSpecOptions adds options derived from each connection's spec, applied
// after the Manager-wide options. It must be called before the first GetConnection.
func (m *Manager) WithSpecOptions(fn func(port.ConnectionSpec) []Option) *Manager {
	m.specOpts = fn
	return m
}

// DefaultConnection returns the name used when GetConnection is called with "".
func (m *Manager) DefaultConnection() string {
	return m.defaultName
}

// Settings returns the log settings shared by all connections.
func (m *Manager) Settings() *LogSettings {
	return m.settings
}

// Names lists the configured connection names in sorted order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.specs))
	for n := range m.specs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// GetConnection returns the open connection called name, opening it on first use.
// An empty name selects the default connection.
func (m *Manager) GetConnection(ctx context.Context, name string) (*Connection, error) {
	if name == "" {
		name = m.defaultName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.conns[name]; ok {
		return c, nil
	}

	spec, ok := m.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConnection, name)
	}

	store, err := m.opener.Open(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("opening connection %q: %w", name, err)
	}

	opts := m.opts
	if m.specOpts != nil {
		opts = append(append([]Option(nil), m.opts...), m.specOpts(spec)...)
	}
	c := NewConnection(name, store, m.settings, opts...)
	m.conns[name] = c
	return c, nil
}

// DropConnection closes and forgets the connection called name.
// Dropping a connection that is not open is a no-op.
func (m *Manager) DropConnection(name string) error {
	if name == "" {
		name = m.defaultName
	}

	m.mu.Lock()
	c, ok := m.conns[name]
	delete(m.conns, name)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("closing connection %q: %w", name, err)
	}
	return nil
}

// Close drops every open connection and returns all close errors joined.
func (m *Manager) Close() error {
	m.mu.Lock()
	names := make([]string, 0, len(m.conns))
	for n := range m.conns {
		names = append(names, n)
	}
	m.mu.Unlock()

	var errs []error
	for _, n := range names {
		if err := m.DropConnection(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
