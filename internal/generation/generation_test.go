package generation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/onoo-labs/marketing-assistant/internal/imaging"
	"github.com/onoo-labs/marketing-assistant/internal/logging"
)

func TestDedupeSources(t *testing.T) {
	in := []Source{
		{URI: "https://a.example", Title: "A"},
		{URI: "https://b.example", Title: "B"},
		{URI: "https://a.example", Title: "A again"},
		{URI: "", Title: "no uri"},
		{URI: "https://c.example"},
		{URI: "https://b.example", Title: "B again"},
	}

	got := DedupeSources(in)
	assert.Equal(t, []Source{
		{URI: "https://a.example", Title: "A"},
		{URI: "https://b.example", Title: "B"},
		{URI: "https://c.example"},
	}, got)

	assert.Nil(t, DedupeSources(nil))
	assert.Nil(t, DedupeSources([]Source{{Title: "only title"}}))
}

func TestSourcesOf(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{GroundingMetadata: &genai.GroundingMetadata{GroundingChunks: []*genai.GroundingChunk{
				{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A"}},
				{},
				nil,
				{Web: &genai.GroundingChunkWeb{URI: "https://b.example", Title: "B"}},
			}}},
			{},
			nil,
		},
	}

	assert.Equal(t, []Source{
		{URI: "https://a.example", Title: "A"},
		{URI: "https://b.example", Title: "B"},
	}, sourcesOf(resp))
	assert.Nil(t, sourcesOf(nil))
}

func TestFirstInlineImage(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here is your image"},
				{InlineData: &genai.Blob{Data: []byte{1, 2, 3}, MIMEType: "image/jpeg"}},
				{InlineData: &genai.Blob{Data: []byte{4}}},
			}},
		}},
	}

	img, err := firstInlineImage(resp)
	require.NoError(t, err)
	assert.Equal(t, imaging.RasterImage{Data: []byte{1, 2, 3}, MIMEType: "image/jpeg"}, img)

	_, err = firstInlineImage(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "refused"}}}}},
	})
	assert.ErrorIs(t, err, ErrNoImage)

	_, err = firstInlineImage(nil)
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestChatContents(t *testing.T) {
	contents := chatContents(ChatRequest{
		History: []Turn{
			{Role: RoleUser, Text: "first"},
			{Role: RoleModel, Text: "reply"},
		},
		Message: "second",
	})

	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "user", contents[2].Role)
	assert.Equal(t, "second", contents[2].Parts[0].Text)
}

func TestIsImagenModel(t *testing.T) {
	assert.True(t, isImagenModel("imagen-4.0-generate-001"))
	assert.True(t, isImagenModel("models/imagen-3.0-generate-002"))
	assert.False(t, isImagenModel("gemini-2.5-flash-image"))
}

func TestNewLimiter(t *testing.T) {
	assert.True(t, newLimiter(0).Allow())

	l := newLimiter(60)
	assert.Equal(t, 6, l.Burst())
	assert.InDelta(t, 1.0, float64(l.Limit()), 1e-9)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{APIKey: "  "}, nopLogger())
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestGenerationError(t *testing.T) {
	cause := errors.New("quota")
	err := Wrap("post.text", "فشل في الحصول على رد.", cause)

	assert.ErrorIs(t, err, ErrGeneration)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "فشل في الحصول على رد.", UserMessage(err, "fallback"))
	assert.Equal(t, "fallback", UserMessage(cause, "fallback"))
	assert.NoError(t, Wrap("op", "msg", nil))

	bare := &GenerationError{Op: "post.image", Message: "no image"}
	assert.ErrorIs(t, bare, ErrGeneration)
	assert.Equal(t, "post.image: no image", bare.Error())
}

func TestVoiceEventOf(t *testing.T) {
	ev := voiceEventOf(&genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{
		InputTranscription:  &genai.Transcription{Text: "مرحبا"},
		OutputTranscription: &genai.Transcription{Text: "أهلاً"},
		ModelTurn: &genai.Content{Parts: []*genai.Part{
			{InlineData: &genai.Blob{Data: []byte{1, 2}}},
			{InlineData: &genai.Blob{Data: []byte{3}}},
		}},
		TurnComplete: true,
	}})

	assert.Equal(t, VoiceEvent{
		InputText:    "مرحبا",
		OutputText:   "أهلاً",
		Audio:        []byte{1, 2, 3},
		TurnComplete: true,
	}, ev)
	assert.Equal(t, VoiceEvent{}, voiceEventOf(&genai.LiveServerMessage{}))
}

type recordingSession struct {
	chunks [][]byte
	err    error
}

func (s *recordingSession) Receive(ctx context.Context) (VoiceEvent, error) { return VoiceEvent{}, io.EOF }
func (s *recordingSession) Close() error                                    { return nil }
func (s *recordingSession) SendAudio(ctx context.Context, pcm []byte) error {
	if s.err != nil {
		return s.err
	}
	s.chunks = append(s.chunks, pcm)
	return nil
}

func TestStreamAudio(t *testing.T) {
	s := &recordingSession{}
	require.NoError(t, StreamAudio(context.Background(), s, bytes.NewReader(make([]byte, 10)), 4))
	require.Len(t, s.chunks, 3)
	assert.Len(t, s.chunks[2], 2, "trailing partial chunk is sent")

	failing := &recordingSession{err: errors.New("closed")}
	assert.Error(t, StreamAudio(context.Background(), failing, bytes.NewReader(make([]byte, 10)), 4))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, StreamAudio(ctx, &recordingSession{}, bytes.NewReader(make([]byte, 10)), 4), context.Canceled)
}

func nopLogger() logging.Logger { return logging.Nop() }
