package domain

// Built-in prompt templates. The prompt store writes them to disk as the
// initial user-editable copies and falls back to them when a file is missing.
const (
	// DefaultQAPrompt takes two %s verbs: the retrieved context, then the question.
	DefaultQAPrompt = `You are a helpful assistant. Answer the question using only the context below.
If the context does not contain enough information, say that you cannot answer.

Context:
%s

Question: %s

Answer:`

	// DefaultSummaryQuestion is the question asked by summarize.
	DefaultSummaryQuestion = "Please briefly summarize the main content, core viewpoints and key information of this document."

	// DefaultSystemPrompt is sent as the system message with every question.
	DefaultSystemPrompt = "You answer questions about the user's documents. Be accurate and concise, and answer in the language of the question."
)
