package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"google.golang.org/genai"
)

// PCM formats of the live voice channel.
const (
	InputAudioMIME  = "audio/pcm;rate=16000"
	InputSampleRate = 16000
	// OutputSampleRate is the rate of the 16-bit mono PCM the model speaks.
	OutputSampleRate = 24000
)

// VoiceConfig configures a live voice session.
type VoiceConfig struct {
	Model             string
	SystemInstruction string
	VoiceName         string
}

// VoiceEvent is one message from a live voice session. Transcription text
// is incremental; TurnComplete closes the current exchange.
type VoiceEvent struct {
	InputText    string
	OutputText   string
	Audio        []byte
	TurnComplete bool
	Interrupted  bool
}

// VoiceSession is a bidirectional live audio exchange with the model.
type VoiceSession interface {
	// Receive blocks for the next event. It returns io.EOF once the
	// session is closed.
	Receive(ctx context.Context) (VoiceEvent, error)
	SendAudio(ctx context.Context, pcm []byte) error
	Close() error
}

// ConnectVoice opens a live session with audio replies and transcription
// of both directions.
func (c *Client) ConnectVoice(ctx context.Context, cfg VoiceConfig) (VoiceSession, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	lc := &genai.LiveConnectConfig{
		ResponseModalities:       []genai.Modality{genai.ModalityAudio},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}
	if cfg.SystemInstruction != "" {
		lc.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}
	if cfg.VoiceName != "" {
		lc.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: cfg.VoiceName},
			},
		}
	}

	session, err := c.genai.Live.Connect(ctx, cfg.Model, lc)
	if err != nil {
		return nil, fmt.Errorf("failed to open voice session: %w", err)
	}
	c.log.FromContext(ctx).LogInfof("generation.voice", "voice session opened on %s", cfg.Model)
	return &liveSession{session: session}, nil
}

type liveSession struct {
	session *genai.Session
	closed  atomic.Bool
}

func (s *liveSession) Receive(ctx context.Context) (VoiceEvent, error) {
	if err := ctx.Err(); err != nil {
		return VoiceEvent{}, err
	}
	msg, err := s.session.Receive()
	if err != nil {
		if s.closed.Load() {
			return VoiceEvent{}, io.EOF
		}
		return VoiceEvent{}, err
	}
	return voiceEventOf(msg), nil
}

func (s *liveSession) SendAudio(ctx context.Context, pcm []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{Data: pcm, MIMEType: InputAudioMIME},
	})
}

// Close ends the session; a pending Receive returns io.EOF. Closing twice
// is a no-op.
func (s *liveSession) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.session.Close()
}

func voiceEventOf(msg *genai.LiveServerMessage) VoiceEvent {
	var ev VoiceEvent
	if msg == nil || msg.ServerContent == nil {
		return ev
	}
	sc := msg.ServerContent
	if sc.InputTranscription != nil {
		ev.InputText = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		ev.OutputText = sc.OutputTranscription.Text
	}
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part != nil && part.InlineData != nil {
				ev.Audio = append(ev.Audio, part.InlineData.Data...)
			}
		}
	}
	ev.TurnComplete = sc.TurnComplete
	ev.Interrupted = sc.Interrupted
	return ev
}

// StreamAudio reads 16 kHz PCM from r in chunks of chunkBytes and sends it
// to the session until r is exhausted or ctx is done.
func StreamAudio(ctx context.Context, session VoiceSession, r io.Reader, chunkBytes int) error {
	if chunkBytes <= 0 {
		// 100 ms of 16-bit mono audio.
		chunkBytes = InputSampleRate / 10 * 2
	}
	buf := make([]byte, chunkBytes)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if serr := session.SendAudio(ctx, chunk); serr != nil {
				return fmt.Errorf("failed to send audio: %w", serr)
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read audio: %w", err)
		}
	}
}
