package config

import (
	"fmt"
	"strings"
)

const (
	FormatAuto    = "auto"
	FormatTXT     = "txt"
	FormatJSONL   = "jsonl"
	FormatParquet = "parquet"
)

const (
	ModelTypeUnigram = "unigram"
	ModelTypeBPE     = "bpe"
	ModelTypeChar    = "char"
	ModelTypeWord    = "word"
)

const (
	NormalizationNone = "none"
	NormalizationNFC  = "nfc"
	NormalizationNFKC = "nfkc"
)

func NormalizeInputFormat(raw string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	if format == "" {
		format = FormatAuto
	}
	switch format {
	case FormatAuto, FormatTXT, FormatJSONL, FormatParquet:
		return format, nil
	default:
		return "", fmt.Errorf(
			"invalid input format %q (expected %s|%s|%s|%s)",
			raw,
			FormatAuto,
			FormatTXT,
			FormatJSONL,
			FormatParquet,
		)
	}
}

func NormalizeModelType(raw string) (string, error) {
	modelType := strings.ToLower(strings.TrimSpace(raw))
	if modelType == "" {
		modelType = ModelTypeBPE
	}
	switch modelType {
	case ModelTypeUnigram, ModelTypeBPE, ModelTypeChar, ModelTypeWord:
		return modelType, nil
	default:
		return "", fmt.Errorf(
			"invalid model type %q (expected %s|%s|%s|%s)",
			raw,
			ModelTypeUnigram,
			ModelTypeBPE,
			ModelTypeChar,
			ModelTypeWord,
		)
	}
}

func NormalizeNormalization(raw string) (string, error) {
	form := strings.ToLower(strings.TrimSpace(raw))
	if form == "" {
		form = NormalizationNone
	}
	switch form {
	case NormalizationNone, NormalizationNFC, NormalizationNFKC:
		return form, nil
	default:
		return "", fmt.Errorf(
			"invalid normalization %q (expected %s|%s|%s)",
			raw,
			NormalizationNone,
			NormalizationNFC,
			NormalizationNFKC,
		)
	}
}
