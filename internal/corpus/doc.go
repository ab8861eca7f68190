// Package corpus turns a mixed set of .txt, .jsonl and .parquet inputs into
// the single line-per-sentence text file the SentencePiece trainer reads.
//
// Every extracted string is trimmed and empty strings are dropped, so each
// line of the collected corpus carries text. Malformed JSONL records are
// skipped without error; any other read failure is returned to the caller.
package corpus
