package openai

import (
	"sync"

	"github.com/garcon-ai/garcon/api"
	"github.com/garcon-ai/garcon/provider"
	"github.com/garcon-ai/garcon/provider/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

func GPT4oMini(opts ...option.RequestOption) api.Model {
	return Model(openai.ChatModelGPT4oMini, opts...)
}

func GPT4o(opts ...option.RequestOption) api.Model {
	return Model(openai.ChatModelGPT4o, opts...)
}

func O1Mini(opts ...option.RequestOption) api.Model {
	return Model(openai.ChatModelO1Mini, opts...)
}

func O1(opts ...option.RequestOption) api.Model {
	return Model(openai.ChatModelO1, opts...)
}

// Model returns the shared handle for name, creating and registering
// it on first use so serialized events can resolve it later.
func Model(name string, opts ...option.RequestOption) api.Model {
	return models.GetOrAdd(name, func() api.Model {
		return &model{
			name: name,
			opts: opts,
		}
	})
}

var _ api.Model = (*model)(nil)

type model struct {
	name string
	opts []option.RequestOption

	prov     provider.Provider
	provOnce sync.Once
}

func (m *model) Name() string {
	return m.name
}

// Provider lazily constructs the OpenAI client so importing this
// package never requires credentials.
func (m *model) Provider() provider.Provider {
	m.provOnce.Do(func() {
		m.prov = New(m.opts...)
	})
	return m.prov
}
