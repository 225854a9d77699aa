package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/onoo-labs/marketing-assistant/internal/generation"
	"github.com/onoo-labs/marketing-assistant/internal/logging"
	"github.com/onoo-labs/marketing-assistant/internal/project/domain"
)

const (
	msgLogoIdeaRequired     = "يرجى إدخال فكرة أولية للشعار."
	msgLogoPromptFailed     = "فشل في توليد وصف الشعار."
	msgLogoPromptMissing    = "يجب توليد الوصف التفصيلي أولاً."
	msgLogoApprovalRequired = "يجب الموافقة على الوصف التفصيلي أولاً."
	msgLogoFailed           = "فشل في توليد الشعار."
	msgLogoDraftMissing     = "لا يوجد شعار لحفظه."
	msgUnknownSlot          = "خانة شعار غير معروفة."
)

// Identity runs the logo design flow for each slot: idea, detailed prompt,
// approval, generated draft and finally the saved logo.
type Identity struct {
	store  StateStore
	text   TextGenerator
	images ImageGenerator
	models Models
	log    logging.Logger

	primary   tracker
	secondary tracker
}

func NewIdentity(store StateStore, text TextGenerator, images ImageGenerator, models Models, log logging.Logger) *Identity {
	return &Identity{store: store, text: text, images: images, models: models, log: log}
}

func (i *Identity) tracker(slot domain.LogoSlot) *tracker {
	if slot == domain.SlotSecondary {
		return &i.secondary
	}
	return &i.primary
}

func (i *Identity) Status(slot domain.LogoSlot) Status { return i.tracker(slot).status() }

// DraftPrompt expands idea into a detailed logo brief. It restarts the
// slot's flow: approval and any draft logo are cleared.
func (i *Identity) DraftPrompt(ctx context.Context, slot domain.LogoSlot, idea string) error {
	if !slot.Valid() {
		return &InputError{Message: msgUnknownSlot}
	}
	t := i.tracker(slot)
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return t.reject(msgLogoIdeaRequired)
	}
	if err := t.begin(); err != nil {
		return err
	}

	st := i.store.Update(ctx, func(s *domain.ProjectState) {
		*s.Identity.Draft(slot) = domain.LogoDraft{InitialPrompt: idea}
	})

	brief, err := i.text.GenerateText(ctx, generation.TextRequest{
		Model:  i.models.Text,
		Prompt: logoBriefPrompt(logoName(st.ProductInfo, slot), idea),
	})
	if err != nil {
		i.log.FromContext(ctx).LogError("identity.prompt", err)
		return t.end(generation.Wrap("identity.prompt", msgLogoPromptFailed, err))
	}

	i.store.Update(ctx, func(s *domain.ProjectState) { s.Identity.Draft(slot).DetailedPrompt = brief })
	return t.end(nil)
}

// EditPrompt replaces the detailed brief by hand, which withdraws approval.
func (i *Identity) EditPrompt(ctx context.Context, slot domain.LogoSlot, brief string) error {
	if !slot.Valid() {
		return &InputError{Message: msgUnknownSlot}
	}
	i.store.Update(ctx, func(s *domain.ProjectState) {
		d := s.Identity.Draft(slot)
		d.DetailedPrompt = brief
		d.PromptApproved = false
	})
	return nil
}

// ApprovePrompt marks the slot's brief as approved for generation.
func (i *Identity) ApprovePrompt(ctx context.Context, slot domain.LogoSlot) error {
	if !slot.Valid() {
		return &InputError{Message: msgUnknownSlot}
	}
	st := i.store.State()
	if strings.TrimSpace(st.Identity.Draft(slot).DetailedPrompt) == "" {
		return i.tracker(slot).reject(msgLogoPromptMissing)
	}
	i.store.Update(ctx, func(s *domain.ProjectState) { s.Identity.Draft(slot).PromptApproved = true })
	return nil
}

// GenerateLogo renders a draft logo from the approved brief. The saved
// logo is not touched until SaveLogo.
func (i *Identity) GenerateLogo(ctx context.Context, slot domain.LogoSlot) error {
	if !slot.Valid() {
		return &InputError{Message: msgUnknownSlot}
	}
	t := i.tracker(slot)
	st := i.store.State()
	draft := *st.Identity.Draft(slot)
	if !draft.PromptApproved || strings.TrimSpace(draft.DetailedPrompt) == "" {
		return t.reject(msgLogoApprovalRequired)
	}
	if err := t.begin(); err != nil {
		return err
	}

	i.store.Update(ctx, func(s *domain.ProjectState) { s.Identity.Draft(slot).DraftLogo = "" })

	img, err := i.images.GenerateImage(ctx, generation.ImageRequest{
		Model:  i.models.Image,
		Prompt: logoImagePrompt(draft.DetailedPrompt),
	})
	if err != nil {
		msg := msgLogoFailed
		if errors.Is(err, generation.ErrNoImage) {
			msg = msgNoImage
		}
		i.log.FromContext(ctx).LogError("identity.logo", err)
		return t.end(generation.Wrap("identity.logo", msg, err))
	}
	if _, _, err := img.Size(); err != nil {
		i.log.FromContext(ctx).LogError("identity.logo", err)
		return t.end(generation.Wrap("identity.logo", msgLogoFailed, err))
	}

	uri := img.DataURI()
	i.store.Update(ctx, func(s *domain.ProjectState) { s.Identity.Draft(slot).DraftLogo = uri })
	return t.end(nil)
}

// SaveLogo makes the slot's draft the logo used for watermarks.
func (i *Identity) SaveLogo(ctx context.Context, slot domain.LogoSlot) error {
	if !slot.Valid() {
		return &InputError{Message: msgUnknownSlot}
	}
	st := i.store.State()
	draft := st.Identity.Draft(slot).DraftLogo
	if draft == "" {
		return i.tracker(slot).reject(msgLogoDraftMissing)
	}
	i.store.Update(ctx, func(s *domain.ProjectState) { s.Logos.Set(slot, draft) })
	i.log.FromContext(ctx).LogInfof("identity.save", "saved %s logo", slot)
	return nil
}

func logoName(p domain.ProductInfo, slot domain.LogoSlot) string {
	if slot == domain.SlotSecondary {
		return p.Company
	}
	return p.Name
}

func logoBriefPrompt(name, idea string) string {
	return fmt.Sprintf(`بصفتك مصمم هويات بصرية وخبير في العلامات التجارية، قم بكتابة وصف احترافي ومفصل لإنشاء شعار (logo). هذا الوصف سيتم استخدامه من قبل ذكاء اصطناعي آخر لتوليد الصورة.
- اسم الشعار: "%s"
- الفكرة الأولية من المستخدم: "%s"
- يجب أن يتضمن الوصف: الأسلوب (مثال: عصري، بسيط، احترافي)، الألوان المقترحة ودلالاتها، الأشكال والرموز التي يمكن استخدامها، والمشاعر التي يجب أن يثيرها الشعار.
- اجعل الوصف دقيقاً وموجهاً للمصمم (الذكاء الاصطناعي).`, name, idea)
}

func logoImagePrompt(brief string) string {
	return fmt.Sprintf(`Generate a professional logo based on the following detailed description. The logo should be on a transparent or plain white background, focusing on the symbol or wordmark itself. Do not add any extra text like the company name unless it's part of the logo wordmark itself. Description: "%s"`, brief)
}
