package domain

// ActiveTab is the view the user currently has open.
type ActiveTab string

const (
	TabProductProfile  ActiveTab = "PRODUCT_PROFILE"
	TabIdentityManager ActiveTab = "IDENTITY_MANAGER"
	TabChatbot         ActiveTab = "CHATBOT"
	TabPostGenerator   ActiveTab = "POST_GENERATOR"
	TabAdCreative      ActiveTab = "AD_CREATIVE"
	TabVoiceConsultant ActiveTab = "VOICE_CONSULTANT"
)

var tabs = []ActiveTab{
	TabProductProfile, TabIdentityManager, TabChatbot,
	TabPostGenerator, TabAdCreative, TabVoiceConsultant,
}

// Tabs lists the views in display order.
func Tabs() []ActiveTab {
	return append([]ActiveTab(nil), tabs...)
}

func (t ActiveTab) Valid() bool {
	for _, v := range tabs {
		if v == t {
			return true
		}
	}
	return false
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ProjectState is the root aggregate persisted locally, remotely and in
// exported files. Images are data URIs; an empty string means absent.
type ProjectState struct {
	ActiveTab       ActiveTab            `json:"activeTab"`
	ProductInfo     ProductInfo          `json:"productInfo"`
	ChatHistory     []ChatMessage        `json:"chatHistory"`
	PostGenerator   PostGeneratorState   `json:"postGenerator"`
	AdCreative      AdCreativeState      `json:"adCreative"`
	VoiceConsultant VoiceConsultantState `json:"voiceConsultant"`
	Identity        IdentityState        `json:"identity"`
	Logos           Logos                `json:"logos"`
}

type ProductInfo struct {
	Name           string `json:"name"`
	Company        string `json:"company"`
	Description    string `json:"description"`
	TargetAudience string `json:"targetAudience"`
	USP            string `json:"usp"`
}

type ChatMessage struct {
	Role    string           `json:"role"`
	Content string           `json:"content"`
	Sources []GroundingChunk `json:"sources,omitempty"`
}

// GroundingChunk is a web citation attached to a model reply.
type GroundingChunk struct {
	Web WebSource `json:"web"`
}

type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type PostGeneratorState struct {
	PostGoal       string `json:"postGoal"`
	Topic          string `json:"topic"`
	AspectRatio    string `json:"aspectRatio"`
	GeneratedPost  string `json:"generatedPost"`
	GeneratedImage string `json:"generatedImage"`
}

type AdCreativeState struct {
	Prompt         string `json:"prompt"`
	AspectRatio    string `json:"aspectRatio"`
	GeneratedImage string `json:"generatedImage"`
}

type VoiceConsultantState struct {
	History []VoiceTurn `json:"history"`
}

type VoiceTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IdentityState tracks the logo design flow for both slots.
type IdentityState struct {
	Primary   LogoDraft `json:"primary"`
	Secondary LogoDraft `json:"secondary"`
}

type LogoDraft struct {
	InitialPrompt  string `json:"initialPrompt"`
	DetailedPrompt string `json:"detailedPrompt"`
	PromptApproved bool   `json:"promptApproved"`
	DraftLogo      string `json:"draftLogo"`
}

// Logos holds the approved watermark logos: primary is the product mark,
// secondary the company mark.
type Logos struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Draft returns the draft slot for a logo role.
func (s *IdentityState) Draft(slot LogoSlot) *LogoDraft {
	if slot == SlotSecondary {
		return &s.Secondary
	}
	return &s.Primary
}

// Get returns the saved logo for a slot.
func (l Logos) Get(slot LogoSlot) string {
	if slot == SlotSecondary {
		return l.Secondary
	}
	return l.Primary
}

// Set stores the logo for a slot.
func (l *Logos) Set(slot LogoSlot, uri string) {
	if slot == SlotSecondary {
		l.Secondary = uri
		return
	}
	l.Primary = uri
}

// LogoSlot names one of the two logo slots of a project.
type LogoSlot string

const (
	SlotPrimary   LogoSlot = "primary"
	SlotSecondary LogoSlot = "secondary"
)

func (s LogoSlot) Valid() bool {
	return s == SlotPrimary || s == SlotSecondary
}

// Clone deep-copies the state so a mutated copy never shares slices with
// the published one.
func (s ProjectState) Clone() ProjectState {
	out := s
	if s.ChatHistory != nil {
		out.ChatHistory = make([]ChatMessage, len(s.ChatHistory))
		for i, m := range s.ChatHistory {
			out.ChatHistory[i] = m
			if m.Sources != nil {
				out.ChatHistory[i].Sources = append([]GroundingChunk(nil), m.Sources...)
			}
		}
	}
	if s.VoiceConsultant.History != nil {
		out.VoiceConsultant.History = append([]VoiceTurn(nil), s.VoiceConsultant.History...)
	}
	return out
}

// SaveStatus is the transient state of the last remote save.
type SaveStatus string

const (
	SaveIdle   SaveStatus = "idle"
	SaveSaving SaveStatus = "saving"
	SaveSaved  SaveStatus = "saved"
	SaveError  SaveStatus = "error"
)
