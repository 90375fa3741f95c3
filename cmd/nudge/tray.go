// Package main - tray.go abstracts the system tray so the presenter can be
// exercised in tests without a desktop session.
package main

import (
	"sync"

	"github.com/energye/systray"
)

// Tray is the persistent status surface: settable text, tooltip, icon,
// menu and show/hide via ResetMenu.
type Tray interface {
	SetTitle(title string)
	SetTooltip(tooltip string)
	SetIcon(iconBytes []byte)
	ResetMenu()
	AddMenuItem(title, tooltip string) MenuItem
	AddSeparator()
	Quit()
}

// MenuItem is a single activatable menu entry.
type MenuItem interface {
	Click(handler func())
	Disable()
	SetTitle(title string)
}

// RealTray drives the actual systray.
type RealTray struct{}

func (*RealTray) SetTitle(title string)     { systray.SetTitle(title) }
func (*RealTray) SetTooltip(tooltip string) { systray.SetTooltip(tooltip) }
func (*RealTray) SetIcon(iconBytes []byte)  { systray.SetIcon(iconBytes) }
func (*RealTray) ResetMenu()                { systray.ResetMenu() }
func (*RealTray) AddSeparator()             { systray.AddSeparator() }
func (*RealTray) Quit()                     { systray.Quit() }

func (*RealTray) AddMenuItem(title, tooltip string) MenuItem {
	return &realMenuItem{item: systray.AddMenuItem(title, tooltip)}
}

type realMenuItem struct {
	item *systray.MenuItem
}

func (m *realMenuItem) Click(handler func())  { m.item.Click(handler) }
func (m *realMenuItem) Disable()              { m.item.Disable() }
func (m *realMenuItem) SetTitle(title string) { m.item.SetTitle(title) }

// MockTray records surface mutations for tests.
type MockTray struct {
	mu        sync.Mutex
	title     string
	tooltip   string
	iconSets  int
	menuItems []*MockMenuItem
}

func (m *MockTray) SetTitle(title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.title = title
}

func (m *MockTray) SetTooltip(tooltip string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tooltip = tooltip
}

func (m *MockTray) SetIcon([]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.iconSets++
}

func (m *MockTray) ResetMenu() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menuItems = nil
}

func (m *MockTray) AddMenuItem(title, tooltip string) MenuItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := &MockMenuItem{title: title, tooltip: tooltip}
	m.menuItems = append(m.menuItems, item)
	return item
}

func (m *MockTray) AddSeparator() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menuItems = append(m.menuItems, &MockMenuItem{title: "---"})
}

func (*MockTray) Quit() {}

// Title returns the current tray title.
func (m *MockTray) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title
}

// Tooltip returns the current tray tooltip.
func (m *MockTray) Tooltip() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tooltip
}

// MenuTitles returns the titles of the current menu entries.
func (m *MockTray) MenuTitles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	titles := make([]string, len(m.menuItems))
	for i, item := range m.menuItems {
		titles[i] = item.title
	}
	return titles
}

// MenuItem returns the first menu entry whose title matches, or nil.
func (m *MockTray) MenuItem(title string) *MockMenuItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.menuItems {
		if item.title == title {
			return item
		}
	}
	return nil
}

// MockMenuItem records the click handler so tests can activate it.
type MockMenuItem struct {
	title    string
	tooltip  string
	handler  func()
	disabled bool
}

func (m *MockMenuItem) Click(handler func())  { m.handler = handler }
func (m *MockMenuItem) Disable()              { m.disabled = true }
func (m *MockMenuItem) SetTitle(title string) { m.title = title }

// Activate invokes the registered click handler, like a user would.
func (m *MockMenuItem) Activate() {
	if m.handler != nil {
		m.handler()
	}
}
