// Package events defines the typed event contract shared by the stream
// decoder, the turn orchestrator and front ends.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - stream.*
//   - turn_state.*
//   - user_input.*
//   - assistant_playback.*
//
// stream events are decoded once at the transport boundary from a
// `data: <json>` payload. A single payload can produce several events; they
// are emitted in the order listed here.
//
//   - SessionAssigned (stream.session_assigned): backend session token.
//   - TurnAssigned (stream.turn_assigned): backend identifier of the turn.
//   - SourceTranscribed (stream.source_transcribed): recognized source text
//     of an audio translation.
//   - ContentFragment (stream.content_fragment): append-only text piece.
//   - LinksUpdated (stream.links_updated): auxiliary links, last write wins.
//   - EntryMalformed (stream.entry_malformed): undecodable or server-marked
//     entry. Informational only.
//   - EndOfStream (stream.end): synthetic terminal event.
//
// turn_state events
//
//   - TurnStarted (turn_state.started): turn appended as pending.
//   - TurnStreaming (turn_state.streaming): first event arrived.
//   - TurnUpdated (turn_state.updated): mutable snapshot of the full text and
//     its latest render.
//   - TurnFinalized (turn_state.finalized): terminal, carries the post-turn
//     actions.
//   - TurnFailed (turn_state.failed): terminal, carries the localized error.
//   - InputReleased (turn_state.input_released): the input lock was released.
//   - AgentSwitched (turn_state.agent_switched): transcript cleared for a new
//     agent.
//   - TranslationDirectionChanged (turn_state.direction_changed).
//
// user_input events
//
//   - DraftUpdated (user_input.draft_updated): mutable input field snapshot.
//   - RecordingStarted, RecordingWarning, RecordingStopped,
//     RecordingDiscarded (user_input.recording_*).
//   - VoiceFailed (user_input.voice_failed).
//
// assistant_playback events
//
//   - PlaybackStarted (assistant_playback.started).
//   - PlaybackEnded (assistant_playback.ended).
package events
