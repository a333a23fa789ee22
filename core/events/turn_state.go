package events

const (
	// KindTurnStarted identifies a turn appended in pending state.
	KindTurnStarted Kind = "turn_state.started"
	// KindTurnStreaming identifies a turn receiving its first events.
	KindTurnStreaming Kind = "turn_state.streaming"
	// KindTurnUpdated identifies a turn text update.
	KindTurnUpdated Kind = "turn_state.updated"
	// KindTurnFinalized identifies successful turn completion.
	KindTurnFinalized Kind = "turn_state.finalized"
	// KindTurnFailed identifies turn failure.
	KindTurnFailed Kind = "turn_state.failed"
	// KindInputReleased identifies release of the input lock.
	KindInputReleased Kind = "turn_state.input_released"
	// KindAgentSwitched identifies a change of active agent.
	KindAgentSwitched Kind = "turn_state.agent_switched"
	// KindTranslationDirectionChanged identifies a flip of translation
	// direction.
	KindTranslationDirectionChanged Kind = "turn_state.direction_changed"
)

// Action is a post-turn control exposed once a turn is finalized.
type Action string

const (
	ActionCopy      Action = "copy"
	ActionShare     Action = "share"
	ActionLike      Action = "like"
	ActionDislike   Action = "dislike"
	ActionReadAloud Action = "read_aloud"
)

// TurnStarted marks a new pending turn at the end of the transcript.
type TurnStarted struct {
	Base
	TurnKey string
	Input   string
}

// NewTurnStarted creates a turn started event.
func NewTurnStarted(turnKey, input string) TurnStarted {
	return TurnStarted{Base: NewBase(KindTurnStarted), TurnKey: turnKey, Input: input}
}

// TurnStreaming marks the transition from pending to streaming.
type TurnStreaming struct {
	Base
	TurnKey string
}

// NewTurnStreaming creates a turn streaming event.
func NewTurnStreaming(turnKey string) TurnStreaming {
	return TurnStreaming{Base: NewBase(KindTurnStreaming), TurnKey: turnKey}
}

// TurnUpdated carries the full accumulated text of a turn and its render.
type TurnUpdated struct {
	Base
	TurnKey  string
	Text     string
	Rendered string
}

// NewTurnUpdated creates a turn updated event.
func NewTurnUpdated(turnKey, text, rendered string) TurnUpdated {
	return TurnUpdated{Base: NewBase(KindTurnUpdated), TurnKey: turnKey, Text: text, Rendered: rendered}
}

// TurnFinalized marks successful completion of a turn.
type TurnFinalized struct {
	Base
	TurnKey  string
	Rendered string
	Links    []string
	Actions  []Action
}

// NewTurnFinalized creates a turn finalized event.
func NewTurnFinalized(turnKey, rendered string, links []string, actions []Action) TurnFinalized {
	return TurnFinalized{
		Base:     NewBase(KindTurnFinalized),
		TurnKey:  turnKey,
		Rendered: rendered,
		Links:    links,
		Actions:  actions,
	}
}

// TurnFailed marks failure of a turn. Message is the localized text shown in
// place of the answer.
type TurnFailed struct {
	Base
	TurnKey string
	Message string
	Err     error
}

// NewTurnFailed creates a turn failed event.
func NewTurnFailed(turnKey, message string, err error) TurnFailed {
	return TurnFailed{Base: NewBase(KindTurnFailed), TurnKey: turnKey, Message: message, Err: err}
}

// InputReleased marks that input can be accepted again. Front ends re-enable
// controls, restore focus and scroll to the tail of TurnKey.
type InputReleased struct {
	Base
	TurnKey string
}

// NewInputReleased creates an input released event.
func NewInputReleased(turnKey string) InputReleased {
	return InputReleased{Base: NewBase(KindInputReleased), TurnKey: turnKey}
}

// AgentSwitched marks that a new agent is active and the transcript was
// cleared.
type AgentSwitched struct {
	Base
	AgentID string
}

// NewAgentSwitched creates an agent switched event.
func NewAgentSwitched(agentID string) AgentSwitched {
	return AgentSwitched{Base: NewBase(KindAgentSwitched), AgentID: agentID}
}

// TranslationDirectionChanged carries the new translation direction.
type TranslationDirectionChanged struct {
	Base
	Reversed       bool
	SourceLanguage string
	TargetLanguage string
}

// NewTranslationDirectionChanged creates a translation direction changed
// event.
func NewTranslationDirectionChanged(reversed bool, source, target string) TranslationDirectionChanged {
	return TranslationDirectionChanged{
		Base:           NewBase(KindTranslationDirectionChanged),
		Reversed:       reversed,
		SourceLanguage: source,
		TargetLanguage: target,
	}
}
