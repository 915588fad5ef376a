// Package provider abstracts chat completion backends behind a single
// streaming interface. A provider turns a conversation thread plus tool
// definitions into a backend request and reports results as typed
// events on a channel: Delim markers, incremental Chunks, a final
// Response carrying a thread checkpoint, or an Error with its run
// context preserved.
//
// Providers always answer through the event channel, whether or not the
// backend streams, so callers process both modes with one switch:
//
//	events, err := prov.ChatCompletion(ctx, params)
//	if err != nil { ... }
//	for event := range events {
//	    switch e := event.(type) {
//	    case provider.Chunk[messages.AssistantMessage]:
//	    case provider.Response[messages.AssistantMessage]:
//	    case provider.Error:
//	    }
//	}
package provider
