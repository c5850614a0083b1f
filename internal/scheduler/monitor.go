package scheduler

import (
	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
)

// NewMonitor веб-интерфейс asynqmon, монтируется по пути RootPath()
func NewMonitor(redis asynq.RedisConnOpt, rootPath string) *asynqmon.HTTPHandler {
	return asynqmon.New(asynqmon.Options{
		RootPath:     rootPath,
		RedisConnOpt: redis,
	})
}
