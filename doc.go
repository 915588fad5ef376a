/*
Package garcon provides a framework for building conversational AI
assistants: agents with tools, orchestrated conversation steps, and an
event stream that observers can hook into.

The package implements a foundation for AI-powered applications through
several key abstractions:

  - Agents: Autonomous entities that process tasks and call tools
  - Steps: Sequences of conversation turns coordinating agents
  - Tools: Extensible capabilities agents can invoke
  - Events: Communication system between components
  - Memory: Context retention across interactions

# Basic Usage

A typical workflow involves creating agents, defining their
capabilities, and orchestrating their interactions:

	waiter := agent.New(
		agent.Name("Waiter"),
		agent.Model(openai.GPT4oMini()),
		agent.Instructions("You take orders for the restaurant"),
		agent.Tools(menuTool),
	)

	b := garcon.New(
		garcon.Agents(waiter),
		garcon.Steps(
			garcon.Step(waiter.Name(), "I'd like to order lunch"),
		),
	)

	if err := b.Run(ctx, garcon.Local(hook)); err != nil {
		// Handle error
	}

# Architecture

The root package ties together:

1. Execution contexts (execution.go)
  - Configure a run: streaming, max turns, context variables
  - Optionally constrain the final answer with StructuredOutput
  - Optionally route events through a broker with WithBroker

2. Hooks (hook.go)
  - Receive every conversation event plus the typed final result
  - Enable monitoring, logging, and UI integration

3. Promises (promise.go)
  - Resolve the final answer asynchronously
  - Decode it into the caller's result type

4. Tasks (task.go)
  - Address a prompt, plain string or full message, to an agent

Higher level assistant capabilities build on this core: the artifact
package maintains structured documents through tool calls, and the
engine packages answer questions over JSON data and route queries
across sub-engines.
*/
package garcon
