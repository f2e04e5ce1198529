package goArgon2

import (
	internalaudit "github.com/MrEthical07/goArgon2/internal/audit"
	"go.uber.org/zap"
)

func newAuditDispatcher(cfg AuditConfig, sink AuditSink, logger *zap.Logger) *internalaudit.Dispatcher {
	return internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Enabled,
		BufferSize: cfg.BufferSize,
		DropIfFull: cfg.DropIfFull,
		Logger:     logger,
	}, sink)
}
