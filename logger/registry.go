package logger

import "sync"

// components holds per-component loggers installed by the application at
// startup. Packages look theirs up with Component when no logger is injected.
var components struct {
	sync.RWMutex
	byName map[string]*Logger
}

// Register installs l as the logger for a component.
func Register(name string, l *Logger) {
	components.Lock()
	defer components.Unlock()
	if components.byName == nil {
		components.byName = make(map[string]*Logger)
	}
	components.byName[name] = l
}

// RegisterComponents derives a tagged logger from base for each name.
func RegisterComponents(base *Logger, names ...string) {
	base = OrGlobal(base)
	for _, name := range names {
		Register(name, base.WithComponent(name))
	}
}

// Component returns the registered logger for name, or the global logger
// tagged with name.
func Component(name string) *Logger {
	components.RLock()
	l, ok := components.byName[name]
	components.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// ResetComponents drops every registered component logger.
func ResetComponents() {
	components.Lock()
	defer components.Unlock()
	components.byName = nil
}
