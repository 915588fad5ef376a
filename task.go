package garcon

import (
	"fmt"

	"github.com/garcon-ai/garcon/messages"
)

type task interface {
	task()
}

type stringTask string

func (s stringTask) task() {}

type messageTask messages.Message[messages.UserMessage]

func (m messageTask) task() {}

// Task is the set of prompt types a conversation step accepts.
type Task interface {
	~string | messages.Message[messages.UserMessage]
}

// ConversationStep pairs an agent with the task it should handle.
type ConversationStep struct {
	agentName string
	task      task
}

// Step creates a conversation step addressed to the named agent.
func Step[T Task](agentName string, tsk T) ConversationStep {
	var t task
	switch xt := any(tsk).(type) {
	case string:
		t = stringTask(xt)
	case messages.Message[messages.UserMessage]:
		t = messageTask(xt)
	default:
		panic(fmt.Sprintf("invalid task type: %T", xt))
	}
	return ConversationStep{
		agentName: agentName,
		task:      t,
	}
}
