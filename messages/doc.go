// Package messages defines the typed message vocabulary that flows
// between users, agents and tools.
//
// Every payload travels inside a generic Message envelope carrying the
// run and turn identifiers, the sender and a timestamp. Payloads are a
// closed union: instructions, user prompts, assistant replies, tool
// calls, tool responses and retries. User and assistant bodies support
// both plain strings and multi-part content (text, images, audio,
// refusals) through ContentOrParts and AssistantContentOrParts.
//
// Messages are built fluently:
//
//	msg := messages.New().WithSender("User").UserPrompt("table for two")
//
// and serialize with a type tag so heterogeneous threads round-trip
// through JSON for checkpoints and brokered events.
package messages
