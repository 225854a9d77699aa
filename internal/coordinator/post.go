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
	msgPostTopicRequired = "يرجى إدخال موضوع المنشور."
	msgPostTextFailed    = "فشل في توليد نص المنشور. يرجى المحاولة مرة أخرى."
	msgPostTextRequired  = "يجب توليد نص المنشور أولاً."
	msgNoImage           = "لم يتمكن النموذج من إنشاء صورة. حاول مرة أخرى."
	msgImageFailed       = "فشل في توليد الصورة."
)

// Post writes a social post and then an image illustrating it.
type Post struct {
	store  StateStore
	text   TextGenerator
	images ImageGenerator
	comp   Compositor
	models Models
	log    logging.Logger

	textStatus  tracker
	imageStatus tracker
}

func NewPost(store StateStore, text TextGenerator, images ImageGenerator, comp Compositor, models Models, log logging.Logger) *Post {
	return &Post{store: store, text: text, images: images, comp: comp, models: models, log: log}
}

func (p *Post) TextStatus() Status  { return p.textStatus.status() }
func (p *Post) ImageStatus() Status { return p.imageStatus.status() }

// WriteText generates the post copy. Any previous post and image are
// cleared first.
func (p *Post) WriteText(ctx context.Context, goal, topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return p.textStatus.reject(msgPostTopicRequired)
	}
	if strings.TrimSpace(goal) == "" {
		goal = domain.DefaultPostGoal
	}
	if err := p.textStatus.begin(); err != nil {
		return err
	}

	st := p.store.Update(ctx, func(s *domain.ProjectState) {
		s.PostGenerator.PostGoal = goal
		s.PostGenerator.Topic = topic
		s.PostGenerator.GeneratedPost = ""
		s.PostGenerator.GeneratedImage = ""
	})

	text, err := p.text.GenerateText(ctx, generation.TextRequest{
		Model:  p.models.Text,
		Prompt: postPrompt(st.ProductInfo, goal, topic),
	})
	if err != nil {
		p.log.FromContext(ctx).LogError("post.text", err)
		return p.textStatus.end(generation.Wrap("post.text", msgPostTextFailed, err))
	}

	p.store.Update(ctx, func(s *domain.ProjectState) { s.PostGenerator.GeneratedPost = text })
	return p.textStatus.end(nil)
}

// GenerateImage illustrates the current post at ratio, or at the stored
// ratio when ratio is empty.
func (p *Post) GenerateImage(ctx context.Context, ratio string) error {
	st := p.store.State()
	if st.PostGenerator.GeneratedPost == "" {
		return p.imageStatus.reject(msgPostTextRequired)
	}
	ar, err := ratioOr(ratio, st.PostGenerator.AspectRatio)
	if err != nil {
		return p.imageStatus.reject(err.Error())
	}
	if err := p.imageStatus.begin(); err != nil {
		return err
	}

	st = p.store.Update(ctx, func(s *domain.ProjectState) {
		s.PostGenerator.AspectRatio = string(ar)
		s.PostGenerator.GeneratedImage = ""
	})

	img, err := p.images.GenerateImage(ctx, generation.ImageRequest{
		Model:       p.models.Image,
		Prompt:      postImagePrompt(st.PostGenerator.Topic),
		AspectRatio: string(ar),
	})
	if err != nil {
		p.log.FromContext(ctx).LogError("post.image", err)
		return p.imageStatus.end(generation.Wrap("post.image", imageFailure(err), err))
	}

	uri, err := brand(ctx, p.comp, p.log, img, ar, st.Logos)
	if err != nil {
		p.log.FromContext(ctx).LogError("post.image", err)
		return p.imageStatus.end(generation.Wrap("post.image", msgImageFailed, err))
	}

	p.store.Update(ctx, func(s *domain.ProjectState) { s.PostGenerator.GeneratedImage = uri })
	return p.imageStatus.end(nil)
}

func imageFailure(err error) string {
	if errors.Is(err, generation.ErrNoImage) {
		return msgNoImage
	}
	return msgImageFailed
}

func postPrompt(p domain.ProductInfo, goal, topic string) string {
	return fmt.Sprintf(`بصفتك خبير تسويق محترف للغاية لمنتج برمجي اسمه "%s" من شركة "%s"، قم بكتابة منشور تسويقي مفصل ومقنع لمنصة Facebook.
- الهدف الرئيسي من المنشور هو: "%s".
- الموضوع الذي يجب التركيز عليه هو: "%s".
- الجمهور المستهدف: %s.
- نقطة البيع الفريدة: %s.
- استخدم لغة قوية وموجهة للمدراء التنفيذيين وصناع القرار في الشركات.
- اشرح الفائدة بوضوح وقدم دعوة للعمل (Call to Action) في النهاية.
- أضف وسوم (hashtags) استراتيجية ومناسبة في نهاية المنشور.`,
		p.Name, p.Company, goal, topic, p.TargetAudience, p.USP)
}

func postImagePrompt(topic string) string {
	return fmt.Sprintf(`أنشئ صورة إعلانية احترافية، بأسلوب عصري ونظيف، تصلح لمنشور على Facebook. يجب أن تعبر الصورة بصريًا عن الفكرة الرئيسية في النص التالي: "%s". تجنب وضع أي نصوص على الصورة.`, topic)
}
