package domain

import "context"

// Task names the purpose of a prompt. Providers ignore it; it is used for
// logging and by test doubles.
type Task string

const (
	TaskProfile       Task = "profile"
	TaskConsequential Task = "consequential"
	TaskFollowup      Task = "followup"
	TaskEvaluate      Task = "evaluate"
	TaskCommentary    Task = "commentary"
)

type Prompt struct {
	Task        Task
	System      string
	User        string
	Temperature float32
}

// LanguageModel returns the raw text of a single completion. Callers parse
// and validate the content themselves.
type LanguageModel interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// TextExtractor turns an uploaded document into plain text.
type TextExtractor interface {
	Extract(filename string, data []byte) (string, error)
}
