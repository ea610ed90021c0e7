// Package acoustics propagates sound events to listeners on a worker
// goroutine. Dispatch never blocks the simulation tick; deliveries surface
// on a results channel whenever they are ready, typically a later tick.
package acoustics

import (
	"sync"

	"emberfall/server/internal/world"
)

const (
	// muffleFactor scales volume when no clear sight line connects the
	// source and the listener.
	muffleFactor = 0.35
	// queueDepth bounds in-flight propagation batches.
	queueDepth = 8
)

// SoundEvent is an emitted noise with a world position and base volume.
type SoundEvent struct {
	Source world.Vec2
	Volume float64
}

// Listener captures an agent's hearing at dispatch time.
type Listener struct {
	ID           string
	Position     world.Vec2
	HearingRange float64
}

// Delivery is the propagation result for a single listener.
type Delivery struct {
	ListenerID     string
	ApparentSource world.Vec2
	Volume         float64
}

// Occluder reports whether open air connects two points.
type Occluder interface {
	LineOfSight(a, b world.Vec2) bool
}

type batch struct {
	events    []SoundEvent
	listeners []Listener
}

// Service runs propagation off the simulation thread.
type Service struct {
	occluder Occluder
	requests chan batch
	results  chan []Delivery

	closeOnce sync.Once
	done      chan struct{}
}

// NewService starts the propagation worker.
func NewService(occluder Occluder) *Service {
	s := &Service{
		occluder: occluder,
		requests: make(chan batch, queueDepth),
		results:  make(chan []Delivery, queueDepth),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Service) run() {
	for {
		select {
		case <-s.done:
			return
		case request := <-s.requests:
			deliveries := Propagate(request.events, request.listeners, s.occluder)
			if len(deliveries) == 0 {
				continue
			}
			select {
			case s.results <- deliveries:
			case <-s.done:
				return
			}
		}
	}
}

// Dispatch queues a batch for propagation without blocking. It reports
// whether the batch was accepted; a full queue drops the batch, which is
// safe because sound only ever adds information.
func (s *Service) Dispatch(events []SoundEvent, listeners []Listener) bool {
	if s == nil || len(events) == 0 || len(listeners) == 0 {
		return false
	}
	request := batch{
		events:    append([]SoundEvent(nil), events...),
		listeners: append([]Listener(nil), listeners...),
	}
	select {
	case s.requests <- request:
		return true
	default:
		return false
	}
}

// Results exposes the delivery channel; each batch is consumed exactly once.
func (s *Service) Results() <-chan []Delivery {
	if s == nil {
		return nil
	}
	return s.results
}

// Close stops the worker. Pending results are discarded.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() { close(s.done) })
}

// Propagate computes deliveries synchronously. Exposed so tests and the
// worker share one model: volume falls off linearly with distance over the
// listener's hearing range and is muffled through walls.
func Propagate(events []SoundEvent, listeners []Listener, occluder Occluder) []Delivery {
	deliveries := make([]Delivery, 0, len(listeners))
	for _, listener := range listeners {
		if listener.HearingRange <= 0 {
			continue
		}
		best := Delivery{ListenerID: listener.ID}
		for _, event := range events {
			if event.Volume <= 0 {
				continue
			}
			distance := listener.Position.DistanceTo(event.Source)
			if distance > listener.HearingRange {
				continue
			}
			volume := event.Volume * (1 - distance/listener.HearingRange)
			if occluder != nil && !occluder.LineOfSight(event.Source, listener.Position) {
				volume *= muffleFactor
			}
			if volume > best.Volume {
				best.Volume = volume
				best.ApparentSource = event.Source
			}
		}
		if best.Volume > 0 {
			deliveries = append(deliveries, best)
		}
	}
	return deliveries
}
