package job

import (
	"github.com/greenpoints/gp-ui/database"
	"github.com/greenpoints/gp-ui/logger"
	"github.com/greenpoints/gp-ui/util/common"
)

// CheckpointJob periodically flushes the sqlite WAL so the on-disk database
// file stays current between shutdowns.
type CheckpointJob struct{}

func NewCheckpointJob() *CheckpointJob {
	return new(CheckpointJob)
}

func (j *CheckpointJob) Run() {
	defer common.Recover("checkpoint job")

	if err := database.Checkpoint(); err != nil {
		logger.Warning("checkpoint job failed:", err)
	}
}
