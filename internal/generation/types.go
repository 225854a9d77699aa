package generation

// Role of a conversation turn, as the model API names it.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one prior message sent as conversation history.
type Turn struct {
	Role string
	Text string
}

// Source is a web citation attached to a grounded reply.
type Source struct {
	URI   string
	Title string
}

type TextRequest struct {
	Model             string
	Prompt            string
	SystemInstruction string
}

// ImageRequest asks for a single image. AspectRatio and MIMEType are only
// honoured by dedicated image models.
type ImageRequest struct {
	Model       string
	Prompt      string
	AspectRatio string
	MIMEType    string
}

type ChatRequest struct {
	Model             string
	SystemInstruction string
	History           []Turn
	Message           string
	// Search enables web grounding.
	Search bool
}

// ChatChunk is one increment of a streamed reply.
type ChatChunk struct {
	Text    string
	Sources []Source
}
