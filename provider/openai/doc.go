/*
Package openai implements provider.Provider on top of OpenAI's chat
completion API. It converts the conversation thread and tool
definitions into API requests, and reports results as stream events
whether or not streaming was requested.

Models are cached process-wide and initialize their provider lazily:

	model := openai.GPT4oMini()

Custom model names work the same way:

	model := openai.Model("custom-model-name",
		option.WithAPIKey("your-key"),
	)

When a completion asks for structured output, the response schema is
folded into the system prompt as a strict JSON contract rather than
sent through the API's response-format parameter.
*/
package openai
