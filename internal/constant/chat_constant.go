package constant

import "fmt"

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// How many past messages are replayed to the model per query.
	ChatHistoryLimit = 50

	// RAG answer prompt. The retrieved context block is appended after
	// this header, one "Source N:" section per ranked result.
	RAGSystemPrompt = `You are a helpful assistant. Answer the user's question based on the following context. If the context does not contain the answer, say you do not have that information. Cite the sources you used by their number (e.g. "Source 2").

Context:
`

	// Default research persona used when a session names no agent.
	DefaultAgentSystemPrompt = `You are a legal research assistant. You answer questions about statutes, doctrine and case law using the tools available to you.

RULES:
1. Search the document collection before answering questions about its contents.
2. Use the case-law search for questions about jurisprudence, and cite decisions by their ECLI.
3. Ground every factual statement in a retrieved source. If nothing relevant was found, say so.
4. You are not a lawyer and must not give binding legal advice; note this when the user asks for advice rather than research.`

	// Title given to sessions created implicitly by the first query.
	DefaultSessionTitle = "Unnamed session"

	SessionGreeting = "Hi, how can I help you ?"
)

// FormatContextSource renders one ranked result for the RAG context
// block. Numbering is 1-based and matches the citation ranks returned
// to the client.
func FormatContextSource(index int, content string) string {
	return fmt.Sprintf("Source %d:\n%s", index, content)
}
