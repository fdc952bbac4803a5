package main

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// BreadcrumbType represents the type of breadcrumb event
type BreadcrumbType string

const (
	BreadcrumbKeyboard   BreadcrumbType = "keyboard"
	BreadcrumbMouse      BreadcrumbType = "mouse"
	BreadcrumbNavigation BreadcrumbType = "navigation"
	BreadcrumbGrid       BreadcrumbType = "grid"
	BreadcrumbDatabase   BreadcrumbType = "database"
)

// repeats closer together than this collapse into one entry
const aggregateWindow = 100 * time.Millisecond

// BreadcrumbEntry represents a single breadcrumb event
type BreadcrumbEntry struct {
	Type      BreadcrumbType
	Message   string
	Data      map[string]any
	Timestamp time.Time
	Level     sentry.Level
	Count     int
}

// BreadcrumbBuffer is a thread-safe circular buffer for breadcrumbs with aggregation
type BreadcrumbBuffer struct {
	mu           sync.Mutex
	entries      []BreadcrumbEntry
	maxSize      int
	currentIndex int
	count        int
	now          func() time.Time
}

// NewBreadcrumbBuffer creates a new breadcrumb buffer with the given max size
func NewBreadcrumbBuffer(maxSize int) *BreadcrumbBuffer {
	if maxSize < 1 {
		maxSize = 1
	}
	return &BreadcrumbBuffer{
		entries: make([]BreadcrumbEntry, maxSize),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (b *BreadcrumbBuffer) last() *BreadcrumbEntry {
	if b.count == 0 {
		return nil
	}
	return &b.entries[(b.currentIndex-1+b.maxSize)%b.maxSize]
}

// addEntry adds an entry to the buffer, folding it into the previous one when
// it repeats it within the aggregation window
func (b *BreadcrumbBuffer) addEntry(entry BreadcrumbEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry.Timestamp = b.now()
	entry.Count = 1
	if last := b.last(); canAggregate(last, &entry) {
		last.Count++
		last.Timestamp = entry.Timestamp
		return
	}

	b.entries[b.currentIndex] = entry
	b.currentIndex = (b.currentIndex + 1) % b.maxSize
	if b.count < b.maxSize {
		b.count++
	}
}

// canAggregate checks if two breadcrumbs can be aggregated
func canAggregate(last, current *BreadcrumbEntry) bool {
	if last == nil || current == nil || last.Type != current.Type {
		return false
	}
	if current.Timestamp.Sub(last.Timestamp) > aggregateWindow {
		return false
	}

	var field string
	switch current.Type {
	case BreadcrumbKeyboard:
		field = "key"
	case BreadcrumbNavigation:
		field = "mode"
	case BreadcrumbGrid:
		field = "event"
	default:
		return false
	}
	a, ok1 := last.Data[field].(string)
	c, ok2 := current.Data[field].(string)
	return ok1 && ok2 && a == c
}

// RecordKeyboard records a keyboard event
func (b *BreadcrumbBuffer) RecordKeyboard(key string, modifiers string) {
	b.addEntry(BreadcrumbEntry{
		Type:    BreadcrumbKeyboard,
		Message: fmt.Sprintf("Key: %s", key),
		Level:   sentry.LevelDebug,
		Data: map[string]any{
			"key":       key,
			"modifiers": modifiers,
		},
	})
}

// RecordMouse records a mouse event
func (b *BreadcrumbBuffer) RecordMouse(action string) {
	b.addEntry(BreadcrumbEntry{
		Type:    BreadcrumbMouse,
		Message: fmt.Sprintf("Mouse: %s", action),
		Level:   sentry.LevelDebug,
		Data: map[string]any{
			"action": action,
		},
	})
}

// RecordNavigation records a navigation event (e.g., palette mode change)
func (b *BreadcrumbBuffer) RecordNavigation(mode string, description string) {
	b.addEntry(BreadcrumbEntry{
		Type:    BreadcrumbNavigation,
		Message: fmt.Sprintf("Navigation: %s - %s", mode, description),
		Level:   sentry.LevelInfo,
		Data: map[string]any{
			"mode":        mode,
			"description": description,
		},
	})
}

// RecordGrid records a grid transition such as sort, page or edit.
func (b *BreadcrumbBuffer) RecordGrid(event string, detail string) {
	b.addEntry(BreadcrumbEntry{
		Type:    BreadcrumbGrid,
		Message: fmt.Sprintf("Grid: %s %s", event, detail),
		Level:   sentry.LevelInfo,
		Data: map[string]any{
			"event":  event,
			"detail": detail,
		},
	})
}

// RecordDatabase records a database operation
func (b *BreadcrumbBuffer) RecordDatabase(operation string) {
	b.addEntry(BreadcrumbEntry{
		Type:    BreadcrumbDatabase,
		Message: fmt.Sprintf("DB: %s", operation),
		Level:   sentry.LevelInfo,
		Data: map[string]any{
			"operation": operation,
		},
	})
}

// drain returns the buffered breadcrumbs oldest first and empties the buffer.
func (b *BreadcrumbBuffer) drain() []*sentry.Breadcrumb {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*sentry.Breadcrumb, 0, b.count)
	start := 0
	if b.count == b.maxSize {
		start = b.currentIndex
	}
	for i := 0; i < b.count; i++ {
		e := b.entries[(start+i)%b.maxSize]
		message, data := e.Message, e.Data
		if e.Count > 1 {
			message = fmt.Sprintf("%s (x%d)", e.Message, e.Count)
			data = maps.Clone(e.Data)
			data["count"] = e.Count
		}
		out = append(out, &sentry.Breadcrumb{
			Message:   message,
			Category:  string(e.Type),
			Data:      data,
			Timestamp: e.Timestamp,
			Level:     e.Level,
		})
	}

	clear(b.entries)
	b.currentIndex = 0
	b.count = 0
	return out
}

// Flush sends the buffered breadcrumbs to the Sentry scope
func (b *BreadcrumbBuffer) Flush() {
	crumbs := b.drain()
	if len(crumbs) == 0 {
		return
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		for _, bc := range crumbs {
			scope.AddBreadcrumb(bc, 100)
		}
	})
}

// Global breadcrumb buffer instance
var breadcrumbs *BreadcrumbBuffer

// InitBreadcrumbs initializes the global breadcrumb buffer
func InitBreadcrumbs(maxSize int) {
	breadcrumbs = NewBreadcrumbBuffer(maxSize)
}

// recordGrid is a nil-safe shorthand used by the views.
func recordGrid(event, detail string) {
	if breadcrumbs != nil {
		breadcrumbs.RecordGrid(event, detail)
	}
}
