package ocr_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medreport-ai/internal/application/ocr"
	domai "github.com/bryanwahyu/medreport-ai/internal/domain/ai"
)

type stubVision struct {
	text     string
	err      error
	gotMime  string
	gotBytes int
}

func (s *stubVision) Transcribe(_ context.Context, instruction string, image []byte, mimeType string) (string, error) {
	s.gotMime = mimeType
	s.gotBytes = len(image)
	return s.text, s.err
}

type stubCleaner struct {
	out   string
	err   error
	calls int
}

func (s *stubCleaner) Complete(_ context.Context, messages []domai.Message, maxTokens int) (string, error) {
	s.calls++
	return s.out, s.err
}

func TestProcess_CleansExtractedText(t *testing.T) {
	vision := &stubVision{text: "  Tum0r s1ze 2 cm  "}
	cleaner := &stubCleaner{out: "Tumor size 2 cm"}
	svc := ocr.NewService(vision, cleaner, nil)

	text, err := svc.Process(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "Tumor size 2 cm", text)
	assert.Equal(t, "image/jpeg", vision.gotMime)
	assert.Equal(t, 2, vision.gotBytes)
	assert.Equal(t, 1, cleaner.calls)
}

func TestProcess_CleaningFailureKeepsRaw(t *testing.T) {
	svc := ocr.NewService(&stubVision{text: "raw text"}, &stubCleaner{err: errors.New("503")}, nil)

	text, err := svc.Process(context.Background(), []byte{1}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "raw text", text)
}

func TestProcess_EmptyCleaningKeepsRaw(t *testing.T) {
	svc := ocr.NewService(&stubVision{text: "raw text"}, &stubCleaner{out: "   "}, nil)

	text, err := svc.Process(context.Background(), []byte{1}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "raw text", text)
}

func TestExtractText_Errors(t *testing.T) {
	cases := []struct {
		name   string
		vision domai.Transcriber
		image  []byte
		want   error
	}{
		{"no backend", nil, []byte{1}, ocr.ErrNoTranscriber},
		{"empty image", &stubVision{text: "x"}, nil, ocr.ErrNoText},
		{"blank output", &stubVision{text: " \n "}, []byte{1}, ocr.ErrNoText},
		{"empty completion", &stubVision{err: domai.ErrEmptyCompletion}, []byte{1}, ocr.ErrNoText},
		{"quota", &stubVision{err: domai.ErrQuotaExceeded}, []byte{1}, domai.ErrQuotaExceeded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := ocr.NewService(tc.vision, nil, nil)
			_, err := svc.ExtractText(context.Background(), tc.image, "image/jpeg")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCleanText_NoCleaner(t *testing.T) {
	svc := ocr.NewService(nil, nil, nil)
	assert.Equal(t, "as is", svc.CleanText(context.Background(), "as is"))
}
