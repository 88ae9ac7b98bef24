package app

import "github.com/bft-labs/skyship/internal/domain"

// Dispatch failure stages reported to Observer.DispatchFailed.
const (
	StageExtract = "extract"
	StageDecode  = "decode"
)

// Observer receives pipeline events. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	FrameReceived(t domain.MessageType)
	FrameDropped(reason string)
	CommitSkipped()
	CommitMatched(subscribers int)
	PostDecoded()
	DeliverySucceeded()
	DeliveryFailed()
	DispatchFailed(stage string)
	ReloadSucceeded(authors int)
	ReloadFailed()
	SessionStateChanged(s SessionState)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) FrameReceived(domain.MessageType) {}
func (NopObserver) FrameDropped(string)              {}
func (NopObserver) CommitSkipped()                   {}
func (NopObserver) CommitMatched(int)                {}
func (NopObserver) PostDecoded()                     {}
func (NopObserver) DeliverySucceeded()               {}
func (NopObserver) DeliveryFailed()                  {}
func (NopObserver) DispatchFailed(string)            {}
func (NopObserver) ReloadSucceeded(int)              {}
func (NopObserver) ReloadFailed()                    {}
func (NopObserver) SessionStateChanged(SessionState) {}
