package models

// Chunk is a bounded slice of a source document, sized for embedding.
type Chunk struct {
	Content    string
	PageNumber int
	ChunkID    int
}

const (
	// ErrorMessage is the only text the conversation pipeline is allowed
	// to surface when any of its stages fail.
	ErrorMessage = "We are facing a technical issue at this time, please try after sometime."

	UploadSuccessMessage = "Documents uploaded and index created successfully. You can chat now."
	IndexClearedMessage  = "Document cleared."

	// WhatsAppChannel is the channel recorded for users created through
	// the messaging webhook.
	WhatsAppChannel = "WhatsApp"

	// MessageTimeLayout matches the persisted createdAt format.
	MessageTimeLayout = "02/01/2006, 15:04"
)

var (
	AnswerPromptTemplate = `You are a helpful assistant. Use the following pieces of CONTEXT and CHAT HISTORY to answer the QUESTION at the end. If you don't know the answer and the CONTEXT doesn't contain the answer truthfully say I don't know. Keep an informative tone.
CONTEXT: %s

CHAT HISTORY:

%s

HUMAN: %s

AI:`

	CondensePromptTemplate = `Given the following CHAT HISTORY and a FOLLOW UP QUESTION, rephrase the FOLLOW UP QUESTION to be a STANDALONE QUESTION in its original language. Keep the context of the CHAT HISTORY in the standalone question.
CHAT HISTORY:

%s

FOLLOW UP QUESTION: %s

STANDALONE QUESTION:`

	ExtractPromptTemplate = `Try to extract a location and quantity from the question, if not found output -1.
Respond with a JSON object of the form {"location": "...", "quantity": "..."} and nothing else.
QUESTION: %s`
)
