// Package normalisers turns marked-up text files into plain text so that
// chunk boundaries and retrieved passages are free of formatting.
package normalisers
