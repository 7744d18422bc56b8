// Package prompt reads operator answers from a line-oriented console.
//
// Console wraps any io.Reader/io.Writer pair so tests can script the answer
// sequence. Yes/no answers are trimmed and case folded before matching
// against y, yes, n and no; anything else is handed back to the caller's
// re-prompt message and asked again.
package prompt
