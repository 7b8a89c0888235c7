package generation

// Message roles recognized by chat-completion providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged entry in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System builds a system-role message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User builds a user-role message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Options carries per-call generation parameters.
type Options struct {
	Model       string
	Temperature *float64
	MaxTokens   int
	// JSONResponse requests the provider's structured-output mode. The
	// reply still goes through the full parse-and-recover path either way.
	JSONResponse bool
}

// FailureResult is a recoverable generation failure carried as data.
// Transport failures, non-success statuses, and unparseable replies all
// normalize to this shape so downstream steps branch once.
type FailureResult struct {
	Error      string `json:"error"`
	RawContent string `json:"raw_content,omitempty"`
}

// AsFailure reports whether a state value is a FailureResult, accepting
// both value and pointer forms.
func AsFailure(v any) (FailureResult, bool) {
	switch f := v.(type) {
	case FailureResult:
		return f, true
	case *FailureResult:
		if f != nil {
			return *f, true
		}
	}
	return FailureResult{}, false
}
