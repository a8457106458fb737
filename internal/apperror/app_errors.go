package apperror

import (
	"errors"

	"github.com/rocketscienceinc/tictactoe/internal/entity"
)

var (
	ErrMoveRejected      = errors.New("move rejected")
	ErrModeNotSelectable = errors.New("mode can only be selected before a match")
	ErrReplayRejected    = errors.New("no match to replay")
	ErrResetRejected     = errors.New("no match to reset")
	ErrUnknownMode       = entity.ErrUnknownMode
	ErrRedisDisabled     = errors.New("redis is disabled in config")
)
