package events

const (
	// KindSessionAssigned identifies a backend session token.
	KindSessionAssigned Kind = "stream.session_assigned"
	// KindTurnAssigned identifies a backend turn identifier.
	KindTurnAssigned Kind = "stream.turn_assigned"
	// KindSourceTranscribed identifies the recognized source of an audio
	// translation.
	KindSourceTranscribed Kind = "stream.source_transcribed"
	// KindContentFragment identifies streamed response text.
	KindContentFragment Kind = "stream.content_fragment"
	// KindLinksUpdated identifies auxiliary links for the turn.
	KindLinksUpdated Kind = "stream.links_updated"
	// KindEntryMalformed identifies a stream entry that could not be used.
	KindEntryMalformed Kind = "stream.entry_malformed"
	// KindEndOfStream identifies the end of a response stream.
	KindEndOfStream Kind = "stream.end"
)

// SessionAssigned carries the session token handed out by the backend.
type SessionAssigned struct {
	Base
	SessionID string
}

// NewSessionAssigned creates a session assigned event.
func NewSessionAssigned(sessionID string) SessionAssigned {
	return SessionAssigned{Base: NewBase(KindSessionAssigned), SessionID: sessionID}
}

// TurnAssigned carries the backend identifier of the current turn.
type TurnAssigned struct {
	Base
	TurnID string
}

// NewTurnAssigned creates a turn assigned event.
func NewTurnAssigned(turnID string) TurnAssigned {
	return TurnAssigned{Base: NewBase(KindTurnAssigned), TurnID: turnID}
}

// SourceTranscribed carries the text recognized from uploaded audio before
// it was translated.
type SourceTranscribed struct {
	Base
	Text string
}

// NewSourceTranscribed creates a source transcribed event.
func NewSourceTranscribed(text string) SourceTranscribed {
	return SourceTranscribed{Base: NewBase(KindSourceTranscribed), Text: text}
}

// ContentFragment carries an append-only piece of response text.
type ContentFragment struct {
	Base
	Text string
}

// NewContentFragment creates a content fragment event.
func NewContentFragment(text string) ContentFragment {
	return ContentFragment{Base: NewBase(KindContentFragment), Text: text}
}

// LinksUpdated carries the full list of auxiliary links known so far. It
// replaces any previous list.
type LinksUpdated struct {
	Base
	Links []string
}

// NewLinksUpdated creates a links updated event.
func NewLinksUpdated(links []string) LinksUpdated {
	return LinksUpdated{Base: NewBase(KindLinksUpdated), Links: links}
}

// EntryMalformed reports a stream entry that was skipped.
type EntryMalformed struct {
	Base
	Raw string
	Err error
}

// NewEntryMalformed creates an entry malformed event.
func NewEntryMalformed(raw string, err error) EntryMalformed {
	return EntryMalformed{Base: NewBase(KindEntryMalformed), Raw: raw, Err: err}
}

// EndOfStream marks that no more events will be decoded from the stream.
type EndOfStream struct{ Base }

// NewEndOfStream creates an end of stream event.
func NewEndOfStream() EndOfStream {
	return EndOfStream{Base: NewBase(KindEndOfStream)}
}
