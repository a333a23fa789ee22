package orchestration

import "github.com/koscakluka/ema-desk/core/events"

type eventCallbacks struct {
	onEvent         func(events.Event)
	onResponse      func(turnKey, text string)
	onDraft         func(text string)
	onInputReleased func(turnKey string)
}

type eventEmitter func(events.Event)

func newCallbackEventEmitter(callbacks eventCallbacks) eventEmitter {
	return func(event events.Event) {
		if callbacks.onEvent != nil {
			callbacks.onEvent(event)
		}

		switch typedEvent := event.(type) {
		case events.TurnUpdated:
			if callbacks.onResponse != nil {
				callbacks.onResponse(typedEvent.TurnKey, typedEvent.Text)
			}
		case events.DraftUpdated:
			if callbacks.onDraft != nil {
				callbacks.onDraft(typedEvent.Text)
			}
		case events.InputReleased:
			if callbacks.onInputReleased != nil {
				callbacks.onInputReleased(typedEvent.TurnKey)
			}
		}
	}
}
