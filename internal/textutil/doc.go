// Package textutil holds small text helpers shared by the normalizer and the
// relevance scorer: diacritic folding and unicode-aware tokenization.
package textutil
