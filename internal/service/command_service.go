package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"kommand-console/internal/transport"

	"go.uber.org/zap"
)

var ErrCommandBusy = errors.New("a command is already being processed")

const commandExecuted = "Command executed"

// CommandService forwards natural-language commands to the server
type CommandService interface {
	Submit(ctx context.Context, text string) error
	Busy() bool
}

type commandService struct {
	api      CommandAPI
	resync   ResyncFunc
	activity Recorder
	logger   *zap.Logger
	busy     atomic.Bool
}

// NewCommandService creates a new instance of CommandService
func NewCommandService(api CommandAPI, resync ResyncFunc, activity Recorder, logger *zap.Logger) CommandService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &commandService{
		api:      api,
		resync:   resync,
		activity: activity,
		logger:   logger,
	}
}

// Submit sends text to the interpreter; only one command may be in flight
func (s *commandService) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !s.busy.CompareAndSwap(false, true) {
		return ErrCommandBusy
	}
	defer s.busy.Store(false)

	s.activity.Info(fmt.Sprintf("Processing: %q", text))

	result, err := s.api.Command(ctx, text)
	if err != nil {
		s.logger.Warn("Command failed", zap.String("text", text), zap.Error(err))
		s.activity.Error("Error: " + transport.DetailOr(err, "Failed"))
		return fmt.Errorf("failed to run command: %w", err)
	}

	message := commandExecuted
	if result != nil && strings.TrimSpace(result.Message) != "" {
		message = result.Message
	}
	s.activity.Success("Done: " + message)

	if s.resync != nil {
		if err := s.resync(ctx); err != nil {
			s.logger.Warn("Resync after command failed", zap.Error(err))
		}
	}
	return nil
}

// Busy reports whether a command is in flight
func (s *commandService) Busy() bool {
	return s.busy.Load()
}
