package domain

import (
	"encoding/json"
	"fmt"

	"github.com/onoo-labs/marketing-assistant/internal/imaging"
)

// Reconcile parses a stored or imported document and merges it over the
// default schema. Every nested group is merged key by key: a key that is
// missing or has the wrong JSON type keeps its default. Unknown keys are
// dropped. Input that is not JSON, or whose top level is not an object,
// is an error.
func Reconcile(raw []byte) (ProjectState, error) {
	var candidate interface{}
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return Defaults(), fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	obj, ok := candidate.(map[string]interface{})
	if !ok {
		return Defaults(), fmt.Errorf("%w: top level is %s, not an object", ErrMalformedDocument, jsonKind(candidate))
	}
	return ReconcileObject(obj), nil
}

// ReconcileObject merges an already decoded document over the defaults.
func ReconcileObject(obj map[string]interface{}) ProjectState {
	out := Defaults()

	if tab, ok := obj["activeTab"].(string); ok && ActiveTab(tab).Valid() {
		out.ActiveTab = ActiveTab(tab)
	}

	info := object(obj, "productInfo")
	out.ProductInfo = ProductInfo{
		Name:           str(info, "name", out.ProductInfo.Name),
		Company:        str(info, "company", out.ProductInfo.Company),
		Description:    str(info, "description", out.ProductInfo.Description),
		TargetAudience: str(info, "targetAudience", out.ProductInfo.TargetAudience),
		USP:            str(info, "usp", out.ProductInfo.USP),
	}

	if arr, ok := obj["chatHistory"].([]interface{}); ok {
		out.ChatHistory = chatMessages(arr)
	}

	post := object(obj, "postGenerator")
	out.PostGenerator = PostGeneratorState{
		PostGoal:       str(post, "postGoal", out.PostGenerator.PostGoal),
		Topic:          str(post, "topic", out.PostGenerator.Topic),
		AspectRatio:    ratio(post, "aspectRatio", out.PostGenerator.AspectRatio),
		GeneratedPost:  str(post, "generatedPost", out.PostGenerator.GeneratedPost),
		GeneratedImage: str(post, "generatedImage", out.PostGenerator.GeneratedImage),
	}

	ad := object(obj, "adCreative")
	out.AdCreative = AdCreativeState{
		Prompt:         str(ad, "prompt", out.AdCreative.Prompt),
		AspectRatio:    ratio(ad, "aspectRatio", out.AdCreative.AspectRatio),
		GeneratedImage: str(ad, "generatedImage", out.AdCreative.GeneratedImage),
	}

	voice := object(obj, "voiceConsultant")
	if arr, ok := voice["history"].([]interface{}); ok {
		out.VoiceConsultant.History = voiceTurns(arr)
	}

	identity := object(obj, "identity")
	out.Identity = IdentityState{
		Primary:   logoDraft(object(identity, "primary")),
		Secondary: logoDraft(object(identity, "secondary")),
	}

	logos := object(obj, "logos")
	out.Logos = Logos{
		Primary:   str(logos, "primary", ""),
		Secondary: str(logos, "secondary", ""),
	}

	return out
}

func chatMessages(arr []interface{}) []ChatMessage {
	out := make([]ChatMessage, 0, len(arr))
	for _, item := range arr {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		role := str(m, "role", "")
		if role != RoleUser && role != RoleModel {
			continue
		}
		msg := ChatMessage{Role: role, Content: str(m, "content", "")}
		if sources, ok := m["sources"].([]interface{}); ok {
			msg.Sources = groundingChunks(sources)
		}
		out = append(out, msg)
	}
	return out
}

func groundingChunks(arr []interface{}) []GroundingChunk {
	var out []GroundingChunk
	for _, item := range arr {
		entry, _ := item.(map[string]interface{})
		web := object(entry, "web")
		uri := str(web, "uri", "")
		if uri == "" {
			continue
		}
		out = append(out, GroundingChunk{Web: WebSource{URI: uri, Title: str(web, "title", "")}})
	}
	return out
}

func voiceTurns(arr []interface{}) []VoiceTurn {
	out := make([]VoiceTurn, 0, len(arr))
	for _, item := range arr {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		role := str(m, "role", "")
		if role != RoleUser && role != RoleModel {
			continue
		}
		out = append(out, VoiceTurn{Role: role, Content: str(m, "content", "")})
	}
	return out
}

func logoDraft(m map[string]interface{}) LogoDraft {
	return LogoDraft{
		InitialPrompt:  str(m, "initialPrompt", ""),
		DetailedPrompt: str(m, "detailedPrompt", ""),
		PromptApproved: boolean(m, "promptApproved", false),
		DraftLogo:      str(m, "draftLogo", ""),
	}
}

// object returns the nested object at key, or nil. Lookups on a nil map
// fall through to the defaults.
func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case []interface{}:
		return "an array"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func object(m map[string]interface{}, key string) map[string]interface{} {
	v, _ := m[key].(map[string]interface{})
	return v
}

func str(m map[string]interface{}, key, def string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}

func boolean(m map[string]interface{}, key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}

func ratio(m map[string]interface{}, key, def string) string {
	if v, ok := m[key].(string); ok && imaging.AspectRatio(v).Valid() {
		return v
	}
	return def
}

// Encode renders the state as the pretty-printed export document.
func Encode(s ProjectState) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
