package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/onoo-labs/marketing-assistant/internal/generation"
	"github.com/onoo-labs/marketing-assistant/internal/imaging"
	"github.com/onoo-labs/marketing-assistant/internal/logging"
	"github.com/onoo-labs/marketing-assistant/internal/project/domain"
)

const (
	msgAdPromptRequired = "يرجى إدخال وصف لتوليد الصورة."
	msgAdNoImage        = "لم يقم النموذج بإرجاع صورة. جرب وصفًا مختلفًا."
	msgAdFailed         = "فشل في توليد الصورة. يرجى المحاولة مرة أخرى."
)

// Ad turns a short description into a branded ad image.
type Ad struct {
	store  StateStore
	images ImageGenerator
	comp   Compositor
	model  string
	log    logging.Logger
	status tracker
}

func NewAd(store StateStore, images ImageGenerator, comp Compositor, model string, log logging.Logger) *Ad {
	return &Ad{store: store, images: images, comp: comp, model: model, log: log}
}

func (a *Ad) Status() Status { return a.status.status() }

// Generate creates the ad image at ratio, or at the stored ratio when
// ratio is empty.
func (a *Ad) Generate(ctx context.Context, prompt, ratio string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return a.status.reject(msgAdPromptRequired)
	}
	ar, err := ratioOr(ratio, a.store.State().AdCreative.AspectRatio)
	if err != nil {
		return a.status.reject(err.Error())
	}
	if err := a.status.begin(); err != nil {
		return err
	}

	st := a.store.Update(ctx, func(s *domain.ProjectState) {
		s.AdCreative.Prompt = prompt
		s.AdCreative.AspectRatio = string(ar)
		s.AdCreative.GeneratedImage = ""
	})

	img, err := a.images.GenerateImage(ctx, generation.ImageRequest{
		Model:       a.model,
		Prompt:      fmt.Sprintf("صورة إعلانية احترافية لمنتج برمجي، %s. الأسلوب: نظيف، عصري، تقني.", prompt),
		AspectRatio: string(ar),
		MIMEType:    imaging.MIMEPNG,
	})
	if err != nil {
		msg := msgAdFailed
		if errors.Is(err, generation.ErrNoImage) {
			msg = msgAdNoImage
		}
		a.log.FromContext(ctx).LogError("ad.generate", err)
		return a.status.end(generation.Wrap("ad.generate", msg, err))
	}

	uri, err := brand(ctx, a.comp, a.log, img, ar, st.Logos)
	if err != nil {
		a.log.FromContext(ctx).LogError("ad.generate", err)
		return a.status.end(generation.Wrap("ad.generate", msgAdFailed, err))
	}

	a.store.Update(ctx, func(s *domain.ProjectState) { s.AdCreative.GeneratedImage = uri })
	return a.status.end(nil)
}
