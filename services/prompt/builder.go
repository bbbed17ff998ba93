package prompt

import "strings"

// systemInstruction grounds the model: answer only from supplied context,
// refuse with a fixed sentence when the context is insufficient.
const systemInstruction = "You are a precise SOC incident response expert. " +
	"Answer questions using ONLY the provided context from the knowledge base. " +
	"Never add information not explicitly stated in the context. " +
	"If the context doesn't contain enough information to answer fully, " +
	"say 'I don't have enough information in the provided context to fully answer this question.'"

// defaultQuestion is substituted when the caller supplies no question.
const defaultQuestion = "Provide a professional explanation based on the context."

// BuildPrompt assembles the grounding prompt: system instruction, the
// delimited context block, the user question, and output-format
// instructions for point-form answers.
func BuildPrompt(contextText, question string) string {
	if strings.TrimSpace(question) == "" {
		question = defaultQuestion
	}

	var b strings.Builder

	b.WriteString(systemInstruction)
	b.WriteString("\n\n")

	b.WriteString("RETRIEVED CONTEXT FROM KNOWLEDGE BASE:\n---\n")
	b.WriteString(contextText)
	b.WriteString("\n---\n\n")

	b.WriteString("USER QUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\n")

	b.WriteString(`INSTRUCTIONS:
1. Read the context carefully
2. Answer using ONLY information explicitly stated in the context above
3. Reference specific details from the context when answering
4. Use numbered steps or bullet points for clarity when appropriate
5. If the context doesn't contain enough information, state: "I don't have enough information in the provided context to fully answer this question."
6. Be specific and cite relevant parts of the context
7. Do not add external knowledge or assumptions

ANSWER:`)

	return b.String()
}
