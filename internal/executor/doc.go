// Package executor provides the execution engine that drives agent
// conversations: it runs completion requests against a provider,
// dispatches tool calls, follows agent handoffs, and resolves the
// final answer through a Future/Promise pair.
//
// Key components:
//
//   - Executor: Interface defining the core execution contract
//     ├── Run: Executes agent commands with streaming support
//     └── handleToolCalls: Manages tool invocations during execution
//
//   - RunCommand: Configuration for execution
//     ├── Agent: The agent to execute
//     ├── Thread: Memory aggregator for context
//     ├── Stream: Enable/disable streaming mode
//     └── Hook: Event handler for execution lifecycle
//
//   - Future/Promise pattern:
//     ├── CompletableFuture: Combined interface for async operations
//     ├── Promise: Write interface for results
//     └── Future: Read interface for retrieving results
//
// Example usage:
//
//	cmd, err := NewRunCommand(agent, thread, hook)
//	if err != nil {
//	    return err
//	}
//	cmd = cmd.WithStream(true).
//	    WithMaxTurns(5).
//	    WithContextVariables(vars)
//
//	future := NewFuture(DefaultUnmarshal[MyResponse]())
//
//	if err := executor.Run(ctx, cmd, future); err != nil {
//	    return err
//	}
//
//	// Get blocks until the run completes
//	result, err := future.Get()
//
// The package is internal. Callers reach it through the root package,
// which wires commands, hooks, and promises together.
package executor
