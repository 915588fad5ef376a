// Package events lifts provider stream events into pub/sub events that
// carry sender information, and defines the Hook interface through
// which the runtime reports conversation progress.
//
// Event hierarchy:
//   - Event: union of everything that can travel over a topic
//     ├── Delim: stream boundary markers
//     ├── Chunk[T]: incremental response fragments
//     ├── Request[T]: user prompts and tool responses heading to the model
//     ├── Response[T]: complete model responses
//     ├── Result[T]: terminal run results
//     └── Error: failures with their run and turn context
//
// Every event carries a run ID, a turn ID, a timestamp and optional
// metadata. ToJSON and FromJSON move events across process boundaries;
// the wire form uses a type discriminator on the event and, for typed
// payloads, on the payload itself.
package events
