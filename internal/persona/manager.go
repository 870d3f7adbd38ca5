package persona

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Scope selects how emotional state is shared between callers.
type Scope string

const (
	// ScopeGlobal shares one emotional state per persona across all callers.
	ScopeGlobal Scope = "global"
	// ScopeSession keeps a separate emotional state per caller.
	ScopeSession Scope = "session"
)

// Identity is the resolved active persona.
type Identity struct {
	Name        Name
	DisplayName string
	// Persona is nil when the active name is unknown.
	Persona   Persona
	Document  *Document
	Memory    *Memory
	Awakening string
}

// Manager holds the active identity and the personas' emotional states.
// It is not safe for concurrent use.
type Manager struct {
	personas map[Name]Persona
	store    Store
	scope    Scope
	active   Name
	global   map[Name]Emotion
	byCaller map[int64]map[Name]Emotion
	logger   *zap.Logger
}

func NewManager(store Store, initial Name, scope Scope, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scope != ScopeSession {
		scope = ScopeGlobal
	}
	m := &Manager{
		personas: make(map[Name]Persona),
		store:    store,
		scope:    scope,
		active:   Name(strings.ToLower(string(initial))),
		byCaller: make(map[int64]map[Name]Emotion),
		logger:   logger,
	}
	for _, p := range All() {
		m.personas[p.Name()] = p
	}
	m.global = m.defaults()
	return m
}

func (m *Manager) defaults() map[Name]Emotion {
	out := make(map[Name]Emotion, len(m.personas))
	for n, p := range m.personas {
		out[n] = p.DefaultEmotion()
	}
	return out
}

func (m *Manager) states(callerID int64) map[Name]Emotion {
	if m.scope == ScopeGlobal {
		return m.global
	}
	st, ok := m.byCaller[callerID]
	if !ok {
		st = m.defaults()
		m.byCaller[callerID] = st
	}
	return st
}

func (m *Manager) Scope() Scope { return m.scope }

func (m *Manager) Active() Name { return m.active }

func (m *Manager) Persona(name Name) (Persona, bool) {
	p, ok := m.personas[name]
	return p, ok
}

// ActivePersona returns the active persona, or false when the active name is unknown.
func (m *Manager) ActivePersona() (Persona, bool) {
	return m.Persona(m.active)
}

// Switch makes name the active identity, resets its emotion to the default
// and returns its awakening script. Store failures degrade to "".
func (m *Manager) Switch(callerID int64, name Name) string {
	name = Name(strings.ToLower(string(name)))
	m.active = name
	p, ok := m.personas[name]
	if !ok {
		m.logger.Warn("switched to unknown persona", zap.String("persona", string(name)))
		return ""
	}
	m.states(callerID)[name] = p.DefaultEmotion()
	return m.awakening(name)
}

// Current resolves the active identity with its document, memory and awakening.
func (m *Manager) Current() Identity {
	p, ok := m.personas[m.active]
	if !ok {
		return Identity{Name: m.active, DisplayName: UnknownName}
	}
	id := Identity{Name: p.Name(), DisplayName: p.DisplayName(), Persona: p}
	if m.store == nil {
		return id
	}
	doc, err := m.store.Document(p.Name())
	if err != nil {
		m.logger.Warn("load persona document", zap.String("persona", string(p.Name())), zap.Error(err))
	}
	id.Document = doc
	mem, err := m.store.Memory(p.Name())
	if err != nil {
		m.logger.Warn("load persona memory", zap.String("persona", string(p.Name())), zap.Error(err))
	}
	id.Memory = &mem
	id.Awakening = m.awakening(p.Name())
	return id
}

func (m *Manager) awakening(name Name) string {
	if m.store == nil {
		return ""
	}
	text, err := m.store.Awakening(name)
	if err != nil {
		m.logger.Warn("load awakening script", zap.String("persona", string(name)), zap.Error(err))
		return ""
	}
	return text
}

// UpdateEmotion classifies text against the active persona's keyword groups
// and stores the result. It returns "" when the active persona is unknown.
func (m *Manager) UpdateEmotion(callerID int64, text string) Emotion {
	p, ok := m.personas[m.active]
	if !ok {
		return ""
	}
	e := p.Classify(text)
	m.states(callerID)[p.Name()] = e
	return e
}

// Emotion returns the current emotion of the named persona.
func (m *Manager) Emotion(callerID int64, name Name) Emotion {
	return m.states(callerID)[name]
}

// SetEmotion rejects emotions outside the persona's enumerated set.
func (m *Manager) SetEmotion(callerID int64, name Name, e Emotion) error {
	p, ok := m.personas[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	if !p.Has(e) {
		return fmt.Errorf("emotion %q is not defined for %s", e, name)
	}
	m.states(callerID)[name] = e
	return nil
}
