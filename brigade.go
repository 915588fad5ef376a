package garcon

import (
	"context"
	"fmt"
	"slices"

	"github.com/alphadose/haxmap"
	"github.com/fogfish/opts"
	"github.com/garcon-ai/garcon/api"
	"github.com/garcon-ai/garcon/internal/executor"
	"github.com/garcon-ai/garcon/internal/shorttermmemory"
	"github.com/garcon-ai/garcon/messages"
	"github.com/garcon-ai/garcon/provider"
)

// Brigade is a named collection of agents and the conversation steps
// they work through. Steps run in order; only the last step resolves
// the caller's promise.
type Brigade struct {
	name   string
	agents *haxmap.Map[string, api.Agent]
	steps  []ConversationStep
}

func Agents(agent api.Agent, extraAgents ...api.Agent) opts.Option[Brigade] {
	return opts.Type[Brigade](func(o *Brigade) error {
		o.agents.Set(agent.Name(), agent)
		for elem := range slices.Values(extraAgents) {
			o.agents.Set(elem.Name(), elem)
		}
		return nil
	})
}

func Steps(step ConversationStep, extraSteps ...ConversationStep) opts.Option[Brigade] {
	return opts.Type[Brigade](func(o *Brigade) error {
		o.steps = append(o.steps, step)
		o.steps = append(o.steps, extraSteps...)
		return nil
	})
}

var Name = opts.ForName[Brigade, string]("name")

func New(options ...opts.Option[Brigade]) *Brigade {
	p := &Brigade{
		name:   "User",
		agents: haxmap.New[string, api.Agent](),
	}
	if err := opts.Apply(p, options); err != nil {
		panic(err)
	}
	return p
}

func (p *Brigade) Run(ctx context.Context, rc ExecutionContext) error {
	defer rc.onClose(ctx)

	maxItems := len(p.steps) - 1

	for i, step := range p.steps {
		var promise executor.Promise
		var schema *provider.StructuredOutput
		if i < maxItems {
			promise = noopPromise{}
		} else {
			promise = rc.promise
			schema = rc.responseSchema
		}

		if err := p.runStep(ctx, step.agentName, step.task, ExecutionContext{
			executor:       rc.executor,
			hook:           rc.hook,
			promise:        promise,
			broker:         rc.broker,
			contextVars:    rc.contextVars,
			onClose:        rc.onClose,
			responseSchema: schema,
			stream:         rc.stream,
			maxTurns:       rc.maxTurns,
		}); err != nil {
			return err
		}
	}

	return nil
}

func (p *Brigade) runStep(ctx context.Context, agentName string, prompt task, rc ExecutionContext) error {
	agent, found := p.agents.Get(agentName)
	if !found {
		return fmt.Errorf("agent %s not found", agentName)
	}

	state := shorttermmemory.New()

	var message messages.Message[messages.UserMessage]
	switch tsk := prompt.(type) {
	case stringTask:
		message = messages.New().WithSender(p.name).UserPrompt(string(tsk))
	case messageTask:
		message = messages.Message[messages.UserMessage](tsk)
	default:
		return fmt.Errorf("unknown task type %T", tsk)
	}
	state.AddUserPrompt(message)

	cmd, err := rc.createCommand(agent, state)
	if err != nil {
		return err
	}

	hook := rc.hook
	if rc.broker != nil {
		topic := rc.broker.Topic(ctx, cmd.ID().String())
		sub, err := topic.Subscribe(ctx, rc.hook)
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
		hook = topicHook{topic: topic}
		cmd.Hook = hook
	}
	hook.OnUserPrompt(ctx, message)

	if err := rc.executor.Run(ctx, cmd, rc.promise); err != nil {
		return err
	}
	return nil
}
