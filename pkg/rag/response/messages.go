package response

// Fallback replies for paths where generation cannot or should not run.
// They are fixed strings so the no-content and failure behaviors stay
// deterministic across calls.
const (
	// FallbackNoContent answers a query when retrieval produced no usable
	// chunks. No model call is made for this reply.
	FallbackNoContent = "I couldn't find relevant information in the uploaded documents to answer your question. Could you please rephrase or ask something else?"

	// FallbackCompletionFailure is the apology reply when the completion
	// provider fails during answer generation.
	FallbackCompletionFailure = "I encountered an error while generating the answer."

	// FallbackUtilityFailure is the apology reply when a document
	// transform fails inside the chat flow.
	FallbackUtilityFailure = "I encountered an error processing your request."

	// FallbackMissingTargetLanguage asks the user to name a target
	// language when a translation request arrives without one.
	FallbackMissingTargetLanguage = "Which language should I translate into? Please mention the target language, for example \"translate to English\"."
)
