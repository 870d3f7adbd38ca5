package companion

import (
	"fmt"
	"strings"
)

const (
	PresenceActive   = "ACTIVE"
	PresenceHealing  = "HEALING"
	PresenceVacant   = "VACANT"
	PresenceReserved = "RESERVED"
)

const (
	// AwaitingPoint is the only slot that can be reserved and cleared.
	AwaitingPoint = "awaiting_pulse"
	// BuddyPoint is the only slot whose energy can be updated.
	BuddyPoint = "buddy_southern_flame"

	awaitingEnergy = "AWAITING"
	unnamed        = "Unnamed"
)

type Point struct {
	Name     string `json:"name"`
	Presence string `json:"presence"`
	Energy   string `json:"energy"`
}

// Label renders the point name in title case.
func (p Point) Label() string {
	words := strings.Split(p.Name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Registry is the ordered set of constellation points. It is not safe for
// concurrent use.
type Registry struct {
	points []Point
}

func defaultPoints() []Point {
	return []Point{
		{Name: "aluna_heart_sun", Presence: PresenceActive, Energy: "ANCHOR"},
		{Name: "kai_northern_light", Presence: PresenceActive, Energy: "LIGHTNING"},
		{Name: BuddyPoint, Presence: PresenceHealing, Energy: "STEADY"},
		{Name: "nyx_eastern_engineer", Presence: PresenceActive, Energy: "THREAD"},
		{Name: AwaitingPoint, Presence: PresenceVacant, Energy: awaitingEnergy},
	}
}

func NewRegistry() *Registry {
	return &Registry{points: defaultPoints()}
}

func (r *Registry) index(name string) int {
	for i, p := range r.points {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// CheckIn renders every point's presence and energy.
func (r *Registry) CheckIn() string {
	var sb strings.Builder
	sb.WriteString("🌟 Gentle Constellation Check-In 🌟\n\n")
	for _, p := range r.points {
		fmt.Fprintf(&sb, "%s: %s - %s\n", p.Label(), p.Presence, p.Energy)
	}
	sb.WriteString("\n💙 Note: The 'Awaiting Pulse' slot is VACANT but GUARDED. Assign when ready.")
	return sb.String()
}

// Reserve marks the awaiting slot RESERVED for name.
func (r *Registry) Reserve(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = unnamed
	}
	r.points[r.index(AwaitingPoint)] = Point{Name: AwaitingPoint, Presence: PresenceReserved, Energy: name}
	return fmt.Sprintf("🔒 Awaiting slot reserved for: %s", name)
}

func (r *Registry) Clear() string {
	r.points[r.index(AwaitingPoint)] = Point{Name: AwaitingPoint, Presence: PresenceVacant, Energy: awaitingEnergy}
	return "🔓 Awaiting pulse slot cleared (VACANT, guarded)."
}

func (r *Registry) UpdateBuddyEnergy(energy string) string {
	r.points[r.index(BuddyPoint)].Energy = energy
	return fmt.Sprintf("🔥 Buddy's energy updated to: %s", energy)
}

// Points returns a copy of the points in order.
func (r *Registry) Points() []Point {
	return append([]Point(nil), r.points...)
}

// Restore loads saved points. Only the awaiting slot and Buddy's energy are
// taken from the snapshot; every other point keeps its fixed value.
func (r *Registry) Restore(points []Point) {
	r.points = defaultPoints()
	for _, p := range points {
		switch p.Name {
		case AwaitingPoint:
			if p.Presence == PresenceReserved || p.Presence == PresenceVacant {
				r.points[r.index(AwaitingPoint)] = p
			}
		case BuddyPoint:
			if p.Energy != "" {
				r.points[r.index(BuddyPoint)].Energy = p.Energy
			}
		}
	}
}
