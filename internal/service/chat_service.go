package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/globlecampus/campus-api/pkg/chat"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

// ChatRequest is the assistant prompt payload.
type ChatRequest struct {
	Message  string `json:"message" validate:"required"`
	Language string `json:"language"`
}

// ChatResponse wraps the assistant reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ChatService fronts the AI study assistant with validation and a timeout.
type ChatService struct {
	assistant chat.Assistant
	timeout   time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChatService constructs a ChatService.
func NewChatService(assistant chat.Assistant, timeout time.Duration, validate *validator.Validate, logger *zap.Logger) *ChatService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{assistant: assistant, timeout: timeout, validator: validate, logger: logger}
}

// Ask forwards a prompt to the assistant.
func (s *ChatService) Ask(ctx context.Context, userID string, req ChatRequest) (*ChatResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chat payload")
	}
	if s.assistant == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "assistant is not configured")
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = "English"
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.assistant.Ask(ctx, req.Message, language)
	if err != nil {
		s.logger.Warn("assistant request failed", zap.String("user_id", userID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "assistant request failed")
	}
	return &ChatResponse{Reply: reply}, nil
}
