// Package summarize condenses many candidate answers into one through
// bottom-up reduction: texts are chunked into groups of fanIn, each
// group is combined by the model with the original question as the
// guide, and the summaries feed the next round until one remains.
//
// A single input passes through without a model call, so the
// summarizer is safe to apply unconditionally to gathered results.
package summarize
