package constant

import "time"

const (
	ChatMessageRoleUser  = "user"
	ChatMessageRoleModel = "model"

	// ChatMessageRoleMemory marks the synthesized long-term context entry.
	// Providers map it to whatever neutral role their API accepts.
	ChatMessageRoleMemory = "memory"
)

// Socket event names
const (
	EventAIMessage  = "ai-message"
	EventAIResponse = "ai-response"
	EventAIError    = "ai-error"
)

const (
	DefaultShortTermLimit = 10
	DefaultLongTermLimit  = 3

	DefaultEmbeddingDimensions = 768

	// Embedding task types understood by the Gemini embedding API
	EmbeddingTaskQuery      = "RETRIEVAL_QUERY"
	EmbeddingTaskDocument   = "RETRIEVAL_DOCUMENT"
	EmbeddingTaskSimilarity = "SEMANTIC_SIMILARITY"

	IndexingTopic = "MEMORY_INDEXING"

	ChatLockTTL = 2 * time.Minute
)

const LongTermMemoryPreamble = "These are some previous messages from the chat. Use them to generate a response:"

// GenericProcessingError is the only failure text a client ever sees.
const GenericProcessingError = "Failed to process your request."
