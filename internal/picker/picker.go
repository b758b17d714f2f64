package picker

import (
	"errors"
	"fmt"
	"sync"

	"github.com/raedapplebanon-spec/route-map/internal/geo"
	"github.com/raedapplebanon-spec/route-map/internal/models"
)

// ActionLocationPicked is the action name of the message sent to the host.
const ActionLocationPicked = "locationPicked"

const (
	defaultZoom  = 15
	selectedZoom = 17
)

// DefaultPosition is shown until an initial position or a pick arrives.
var DefaultPosition = models.Coordinates{Lat: 32.0280, Lng: 35.7043}

// Pick sources.
const (
	SourceSearch = "search"
	SourceDrag   = "drag"
	SourceClick  = "click"
)

var (
	ErrNotReady        = errors.New("picker is not ready")
	ErrInvalidPosition = errors.New("invalid position")
	ErrUnknownSource   = errors.New("unknown pick source")
)

// Message is emitted to the host application whenever the user picks a location.
type Message struct {
	Action string  `json:"action"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

// State is a point-in-time view of the picker.
type State struct {
	Ready       bool                `json:"ready"`
	Position    models.Coordinates  `json:"position"`
	Zoom        int                 `json:"zoom"`
	Pending     *models.Coordinates `json:"pending,omitempty"`
	LastMessage *Message            `json:"lastMessage,omitempty"`
	Picks       int                 `json:"picks"`
}

// Picker holds the single editable location of the picker map.
type Picker struct {
	mu       sync.Mutex
	ready    bool
	pending  *models.Coordinates
	position models.Coordinates
	zoom     int
	last     *Message
	picks    int
}

func New() *Picker {
	return &Picker{position: DefaultPosition, zoom: defaultZoom}
}

// SetInitialPosition centers the picker on an existing location. A zero
// latitude or an invalid coordinate means the record has no location yet
// and is ignored. Before Ready the position is held until the map exists.
func (p *Picker) SetInitialPosition(lat, lng float64) bool {
	if lat == 0 || !geo.IsValidLatLon(lat, lng) {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pos := models.Coordinates{Lat: lat, Lng: lng}
	if !p.ready {
		p.pending = &pos
		return true
	}
	p.position = pos
	p.zoom = selectedZoom
	return true
}

// Ready marks the map as available and applies a held initial position.
func (p *Picker) Ready() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ready {
		return
	}
	p.ready = true
	if p.pending != nil {
		p.position = *p.pending
		p.zoom = selectedZoom
		p.pending = nil
	}
}

// Pick moves the marker and returns the message for the host.
func (p *Picker) Pick(source string, lat, lng float64) (*Message, error) {
	switch source {
	case SourceSearch, SourceDrag, SourceClick:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	if !geo.IsValidCoordinate(lat, lng) {
		return nil, fmt.Errorf("%w: (%v, %v)", ErrInvalidPosition, lat, lng)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ready {
		return nil, ErrNotReady
	}

	p.position = models.Coordinates{Lat: lat, Lng: lng}
	if source == SourceSearch {
		p.zoom = selectedZoom
	}
	msg := &Message{Action: ActionLocationPicked, Lat: lat, Lng: lng}
	p.last = msg
	p.picks++
	return msg, nil
}

func (p *Picker) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := State{
		Ready:    p.ready,
		Position: p.position,
		Zoom:     p.zoom,
		Picks:    p.picks,
	}
	if p.pending != nil {
		pending := *p.pending
		s.Pending = &pending
	}
	if p.last != nil {
		last := *p.last
		s.LastMessage = &last
	}
	return s
}
