package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptQuestionAnswer wraps retrieved context and a question.
	// The template expects two %s placeholders: context, then question.
	PromptQuestionAnswer = "qa"

	// PromptSummary is the canned question asked by summarize.
	// This prompt has no format placeholders.
	PromptSummary = "summarize"

	// PromptSystem is the system message sent with every answer request.
	// This prompt has no format placeholders.
	PromptSystem = "system"
)
