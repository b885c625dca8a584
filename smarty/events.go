package smarty

type AssistantEvent int

const (
	AEWakeDetected AssistantEvent = 10
	AEListening    AssistantEvent = 20
	AEIdle         AssistantEvent = 30
)

func (e AssistantEvent) String() string {
	switch e {
	case AEWakeDetected:
		return "wake-detected"
	case AEListening:
		return "listening"
	case AEIdle:
		return "idle"
	}
	return "unknown"
}

// Subscribe returns a channel receiving phase events. Slow subscribers miss
// events rather than stall dispatch.
func (a *Assistant) Subscribe(size int) <-chan AssistantEvent {
	if size < 1 {
		size = 1
	}
	ch := make(chan AssistantEvent, size)
	a.subMu.Lock()
	a.subs = append(a.subs, ch)
	a.subMu.Unlock()
	return ch
}

func (a *Assistant) PostSignalEvent(e AssistantEvent) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	for _, ch := range a.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
