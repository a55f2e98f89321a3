package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

type fakeAssistant struct {
	prompt   string
	language string
	reply    string
	err      error
}

func (f *fakeAssistant) Ask(_ context.Context, prompt, language string) (string, error) {
	f.prompt = prompt
	f.language = language
	return f.reply, f.err
}

func TestChatAskDefaultsLanguage(t *testing.T) {
	assistant := &fakeAssistant{reply: "Integrals measure area under a curve."}
	svc := NewChatService(assistant, time.Second, nil, nil)

	resp, err := svc.Ask(context.Background(), "user-1", ChatRequest{Message: "What is an integral?"})
	require.NoError(t, err)
	require.Equal(t, "Integrals measure area under a curve.", resp.Reply)
	require.Equal(t, "English", assistant.language)
}

func TestChatAskPassesLanguage(t *testing.T) {
	assistant := &fakeAssistant{reply: "ok"}
	svc := NewChatService(assistant, time.Second, nil, nil)

	_, err := svc.Ask(context.Background(), "user-1", ChatRequest{Message: "hola", Language: "Spanish"})
	require.NoError(t, err)
	require.Equal(t, "Spanish", assistant.language)
}

func TestChatAskValidatesMessage(t *testing.T) {
	svc := NewChatService(&fakeAssistant{}, time.Second, nil, nil)

	_, err := svc.Ask(context.Background(), "user-1", ChatRequest{})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestChatAskAssistantFailure(t *testing.T) {
	svc := NewChatService(&fakeAssistant{err: errors.New("quota exceeded")}, time.Second, nil, nil)

	_, err := svc.Ask(context.Background(), "user-1", ChatRequest{Message: "hello"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestChatAskWithoutAssistant(t *testing.T) {
	svc := NewChatService(nil, time.Second, nil, nil)

	_, err := svc.Ask(context.Background(), "user-1", ChatRequest{Message: "hello"})
	require.Error(t, err)
}
