// Package generate calls a generative model to produce the dictionary-style
// content of an entry: the dictionary form with its translation plus usage
// examples. The model answers in a pipe-delimited plain-text format which is
// validated at this boundary before anything enters the typed data model.
package generate
