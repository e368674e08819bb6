package syncer

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/astropet-api/internal/task"
)

// pushTask carries one snapshot of progress to the remote profile store. The
// snapshot is taken at enqueue time so a later local mutation cannot leak
// into an older push.
type pushTask struct {
	id          uuid.UUID
	coordinator *Coordinator
	solvedItems []string
	level       int
	totalXP     int
}

func newPushTask(c *Coordinator, solvedItems []string, level, totalXP int) *pushTask {
	snapshot := append([]string(nil), solvedItems...)
	return &pushTask{
		id:          uuid.New(),
		coordinator: c,
		solvedItems: snapshot,
		level:       level,
		totalXP:     totalXP,
	}
}

func (t *pushTask) ID() uuid.UUID { return t.id }

func (t *pushTask) Type() string { return task.TaskTypeProfilePush }

func (t *pushTask) Execute(ctx context.Context) error {
	return t.coordinator.applyPush(ctx, t.solvedItems, t.level, t.totalXP)
}

var _ task.Task = (*pushTask)(nil)
