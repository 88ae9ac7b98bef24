package skyship

import (
	"github.com/bft-labs/skyship/internal/app"
	"github.com/bft-labs/skyship/internal/domain"
)

// State is the lifecycle state of a Skyship instance.
type State = app.State

const (
	StateStopped  = app.StateStopped
	StateStarting = app.StateStarting
	StateRunning  = app.StateRunning
	StateStopping = app.StateStopping
	StateCrashed  = app.StateCrashed
)

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// EventHandler receives lifecycle events.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
}

// eventEmitterWrapper adapts EventHandler to app.EventEmitter.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: previous,
		Current:  current,
		Reason:   reason,
	})
}

// observers fans pipeline events out to several observers.
type observers []app.Observer

func (o observers) FrameReceived(t domain.MessageType) {
	for _, obs := range o {
		obs.FrameReceived(t)
	}
}

func (o observers) FrameDropped(reason string) {
	for _, obs := range o {
		obs.FrameDropped(reason)
	}
}

func (o observers) CommitSkipped() {
	for _, obs := range o {
		obs.CommitSkipped()
	}
}

func (o observers) CommitMatched(subscribers int) {
	for _, obs := range o {
		obs.CommitMatched(subscribers)
	}
}

func (o observers) PostDecoded() {
	for _, obs := range o {
		obs.PostDecoded()
	}
}

func (o observers) DeliverySucceeded() {
	for _, obs := range o {
		obs.DeliverySucceeded()
	}
}

func (o observers) DeliveryFailed() {
	for _, obs := range o {
		obs.DeliveryFailed()
	}
}

func (o observers) DispatchFailed(stage string) {
	for _, obs := range o {
		obs.DispatchFailed(stage)
	}
}

func (o observers) ReloadSucceeded(authors int) {
	for _, obs := range o {
		obs.ReloadSucceeded(authors)
	}
}

func (o observers) ReloadFailed() {
	for _, obs := range o {
		obs.ReloadFailed()
	}
}

func (o observers) SessionStateChanged(s app.SessionState) {
	for _, obs := range o {
		obs.SessionStateChanged(s)
	}
}
