package coordinator

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/onoo-labs/marketing-assistant/internal/generation"
	"github.com/onoo-labs/marketing-assistant/internal/logging"
	"github.com/onoo-labs/marketing-assistant/internal/project/domain"
)

const (
	msgVoiceFailed = "انقطع الاتصال بالمستشار الصوتي."

	// VoiceInstruction is the persona of the voice consultant.
	VoiceInstruction = "أنت مستشار تسويق صوتي لمنتج BrandERP. كن احترافياً، استمع جيداً لأسئلة المستخدم، وقدم نصائح تسويقية سريعة وفعالة بصوت واضح وواثق."
)

// Transcript is the in-progress exchange of the current turn.
type Transcript struct {
	User  string
	Model string
}

// Voice records a live voice consultation into the project.
type Voice struct {
	store  StateStore
	log    logging.Logger
	status tracker

	mu      sync.Mutex
	partial Transcript
}

func NewVoice(store StateStore, log logging.Logger) *Voice {
	return &Voice{store: store, log: log}
}

func (v *Voice) Status() Status { return v.status.status() }

// Transcript returns the live partial transcription.
func (v *Voice) Transcript() Transcript {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.partial
}

// Run consumes session events until the session ends or ctx is done. A new
// consultation starts with an empty history; every completed turn commits
// a user/model pair. onEvent, when set, sees the partial transcript and
// any reply audio after each event. Run closes the session.
func (v *Voice) Run(ctx context.Context, session generation.VoiceSession, onEvent func(Transcript, []byte)) error {
	if err := v.status.begin(); err != nil {
		return err
	}
	defer session.Close()

	v.store.Update(ctx, func(s *domain.ProjectState) { s.VoiceConsultant.History = []domain.VoiceTurn{} })
	v.setPartial(Transcript{})
	defer v.setPartial(Transcript{})

	var user, model strings.Builder
	for {
		ev, err := session.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return v.status.end(nil)
			}
			v.log.FromContext(ctx).LogError("voice.run", err)
			return v.status.end(generation.Wrap("voice.run", msgVoiceFailed, err))
		}

		user.WriteString(ev.InputText)
		model.WriteString(ev.OutputText)

		if ev.TurnComplete {
			turn := []domain.VoiceTurn{
				{Role: domain.RoleUser, Content: user.String()},
				{Role: domain.RoleModel, Content: model.String()},
			}
			v.store.Update(ctx, func(s *domain.ProjectState) {
				s.VoiceConsultant.History = append(s.VoiceConsultant.History, turn...)
			})
			user.Reset()
			model.Reset()
		}

		t := Transcript{User: user.String(), Model: model.String()}
		v.setPartial(t)
		if onEvent != nil {
			onEvent(t, ev.Audio)
		}
	}
}

func (v *Voice) setPartial(t Transcript) {
	v.mu.Lock()
	v.partial = t
	v.mu.Unlock()
}
