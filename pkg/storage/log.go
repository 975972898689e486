package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"marketplace/pkg/logger"
)

// NewLog adapts gorm logging to the zap logger carried by the statement context.
// Statements slower than slowThreshold are logged at WARN; record-not-found is not an error.
func NewLog(level glogger.LogLevel, slowThreshold time.Duration) glogger.Interface {
	return &gormLog{level: level, slowThreshold: slowThreshold}
}

type gormLog struct {
	level         glogger.LogLevel
	slowThreshold time.Duration
}

func (g *gormLog) LogMode(level glogger.LogLevel) glogger.Interface {
	l := *g
	l.level = level
	return &l
}

func (g *gormLog) Info(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= glogger.Info {
		logger.From(ctx).Info(fmt.Sprintf(msg, data...), zap.String("source", utils.FileWithLineNum()))
	}
}

func (g *gormLog) Warn(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= glogger.Warn {
		logger.From(ctx).Warn(fmt.Sprintf(msg, data...), zap.String("source", utils.FileWithLineNum()))
	}
}

func (g *gormLog) Error(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= glogger.Error {
		logger.From(ctx).Error(fmt.Sprintf(msg, data...), zap.String("source", utils.FileWithLineNum()))
	}
}

func (g *gormLog) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= glogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	fields := func() []zap.Field {
		sql, rows := fc()
		return []zap.Field{
			zap.String("source", utils.FileWithLineNum()),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
		}
	}
	switch {
	case err != nil && g.level >= glogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		logger.From(ctx).Error("sql failed", append(fields(), zap.Error(err))...)
	case g.slowThreshold != 0 && elapsed > g.slowThreshold && g.level >= glogger.Warn:
		logger.From(ctx).Warn("slow sql", append(fields(), zap.Duration("threshold", g.slowThreshold))...)
	case g.level == glogger.Info:
		logger.From(ctx).Debug("sql", fields()...)
	}
}
