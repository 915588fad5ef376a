package agent

import (
	"strings"
	"text/template"

	"github.com/fogfish/opts"
	"github.com/garcon-ai/garcon/api"
	"github.com/garcon-ai/garcon/provider/openai"
	"github.com/garcon-ai/garcon/tool"
	"github.com/garcon-ai/garcon/types"
)

var _ api.Agent = (*defaultAgent)(nil)

// defaultAgent is the standard api.Agent: a name, a model, templated
// instructions and the tools the model may call.
type defaultAgent struct {
	name              string
	model             api.Model
	instructions      string
	tools             []tool.Definition
	parallelToolCalls bool
}

func (a *defaultAgent) Name() string     { return a.name }
func (a *defaultAgent) Model() api.Model { return a.model }

func (a *defaultAgent) ParallelToolCalls() bool {
	return a.parallelToolCalls
}

func (a *defaultAgent) Tools() []tool.Definition {
	return a.tools
}

// RenderInstructions expands the instructions as a text/template over
// the context variables. Plain instructions skip template parsing, and
// a reference to a missing variable is an error rather than "<no value>".
func (a *defaultAgent) RenderInstructions(cv types.ContextVars) (string, error) {
	if !strings.Contains(a.instructions, "{{") {
		return a.instructions, nil
	}

	tmpl, err := template.New("instructions").Option("missingkey=error").Parse(a.instructions)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, cv); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	Name              = opts.ForName[defaultAgent, string]("name")
	Model             = opts.ForName[defaultAgent, api.Model]("model")
	Instructions      = opts.ForName[defaultAgent, string]("instructions")
	ParallelToolCalls = opts.ForName[defaultAgent, bool]("parallelToolCalls")
)

// Tools appends function definitions to the agent.
func Tools(tool tool.Definition, extraTools ...tool.Definition) opts.Option[defaultAgent] {
	return opts.Type[defaultAgent](func(o *defaultAgent) error {
		o.tools = append(o.tools, tool)
		o.tools = append(o.tools, extraTools...)
		return nil
	})
}

// New builds an agent from the options. The model defaults to GPT-4o
// mini and parallel tool calls are on unless disabled.
func New(options ...opts.Option[defaultAgent]) api.Agent {
	agent := &defaultAgent{
		model:             openai.GPT4oMini(),
		parallelToolCalls: true,
	}
	if err := opts.Apply(agent, options); err != nil {
		panic(err)
	}
	return agent
}
