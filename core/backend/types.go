package backend

// QueryRequest is the body of a chat question.
type QueryRequest struct {
	Question  string `json:"question" jsonschema:"required,minLength=1"`
	Agent     string `json:"agent"`
	Language  string `json:"language"`
	Timezone  string `json:"timezone"`
	Locale    string `json:"locale"`
	SessionID string `json:"session_id,omitempty"`
}

// TranslateRequest is the body of a text translation.
type TranslateRequest struct {
	Text           string `json:"text" jsonschema:"required,minLength=1"`
	SourceLanguage string `json:"source_language" jsonschema:"default=auto"`
	TargetLanguage string `json:"target_language" jsonschema:"default=en"`
}

type LikeRequest struct {
	QuestionID string `json:"question_id" jsonschema:"required"`
	Like       bool   `json:"like"`
}

type CommentRequest struct {
	QuestionID string `json:"question_id" jsonschema:"required"`
	Comment    string `json:"comment" jsonschema:"required"`
}

type SpeechRequest struct {
	Text     string `json:"text" jsonschema:"required,minLength=1"`
	Language string `json:"language"`
}

// StatusResponse is returned by the feedback and session endpoints.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (r StatusResponse) OK() bool {
	return r.Status == "success"
}

type TranscriptionResponse struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// Agent is the public description of a backend agent.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Logo        string `json:"logo,omitempty"`
}

type AgentsResponse struct {
	Agents  map[string]Agent `json:"agents"`
	Default string           `json:"default"`
	Error   string           `json:"error,omitempty"`
}

type SessionInfo struct {
	Exists       bool   `json:"exists"`
	MessageCount int    `json:"message_count,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	LastActivity string `json:"last_activity,omitempty"`
}

type LinksResponse struct {
	Links []string `json:"links"`
}

// StreamEntry documents a single `data:` payload of a streamed reply. Every
// field is optional; a single entry may carry several of them.
type StreamEntry struct {
	SessionID     string   `json:"session_id,omitempty"`
	QuestionID    string   `json:"question_id,omitempty"`
	Transcription string   `json:"transcription,omitempty"`
	Chunk         string   `json:"chunk,omitempty"`
	Links         []string `json:"links,omitempty"`
	Error         string   `json:"error,omitempty"`
}
