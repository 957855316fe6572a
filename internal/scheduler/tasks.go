package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskFollowUpDispatch = "followup.dispatch"

type FollowUpDispatchPayload struct {
	ScheduledID string `json:"scheduledId"`
}

func NewFollowUpDispatchTask(payload FollowUpDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpDispatch, data), nil
}

func ParseFollowUpDispatchPayload(task *asynq.Task) (FollowUpDispatchPayload, error) {
	var payload FollowUpDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpDispatchPayload{}, err
	}
	return payload, nil
}
