package shorttermmemory

// Usage tracks token consumption across a run. Counters only ever grow;
// joins and checkpoint merges add the forked counters in.
type Usage struct {
	CompletionTokens        int64                   `json:"completion_tokens"`
	PromptTokens            int64                   `json:"prompt_tokens"`
	TotalTokens             int64                   `json:"total_tokens"`
	CompletionTokensDetails CompletionTokensDetails `json:"completion_tokens_details"`
	PromptTokensDetails     PromptTokensDetails     `json:"prompt_tokens_details"`
}

type CompletionTokensDetails struct {
	AcceptedPredictionTokens int64 `json:"accepted_prediction_tokens"`
	AudioTokens              int64 `json:"audio_tokens"`
	ReasoningTokens          int64 `json:"reasoning_tokens"`
	RejectedPredictionTokens int64 `json:"rejected_prediction_tokens"`
}

type PromptTokensDetails struct {
	AudioTokens  int64 `json:"audio_tokens"`
	CachedTokens int64 `json:"cached_tokens"`
}

func (u *Usage) AddUsage(other *Usage) {
	if other == nil {
		return
	}
	u.CompletionTokens += other.CompletionTokens
	u.PromptTokens += other.PromptTokens
	u.TotalTokens += other.TotalTokens
	u.CompletionTokensDetails.AcceptedPredictionTokens += other.CompletionTokensDetails.AcceptedPredictionTokens
	u.CompletionTokensDetails.AudioTokens += other.CompletionTokensDetails.AudioTokens
	u.CompletionTokensDetails.ReasoningTokens += other.CompletionTokensDetails.ReasoningTokens
	u.CompletionTokensDetails.RejectedPredictionTokens += other.CompletionTokensDetails.RejectedPredictionTokens
	u.PromptTokensDetails.AudioTokens += other.PromptTokensDetails.AudioTokens
	u.PromptTokensDetails.CachedTokens += other.PromptTokensDetails.CachedTokens
}
