package config

import "github.com/jingkaihe/skills-lint/pkg/tokenizer"

// FallbackEncoding is used when a model has no known default encoding
const FallbackEncoding = tokenizer.CL100KBase

// Model is a supported model and the encoding its budgets are counted in
type Model struct {
	Name            string `json:"name"`
	DefaultEncoding string `json:"defaultEncoding"`
}

var supportedModels = []Model{
	{Name: "gpt-5", DefaultEncoding: tokenizer.O200KBase},
	{Name: "gpt-4o", DefaultEncoding: tokenizer.O200KBase},
	{Name: "gpt-4o-mini", DefaultEncoding: tokenizer.O200KBase},
	{Name: "gpt-4-turbo", DefaultEncoding: tokenizer.CL100KBase},
	{Name: "gpt-4", DefaultEncoding: tokenizer.CL100KBase},
	{Name: "gpt-3.5-turbo", DefaultEncoding: tokenizer.CL100KBase},
}

// SupportedModels returns the supported models in display order
func SupportedModels() []Model {
	models := make([]Model, len(supportedModels))
	copy(models, supportedModels)
	return models
}

// SupportedModelNames returns the supported model names in display order
func SupportedModelNames() []string {
	names := make([]string, 0, len(supportedModels))
	for _, m := range supportedModels {
		names = append(names, m.Name)
	}
	return names
}

// DefaultEncoding returns the default encoding of a supported model
func DefaultEncoding(model string) (string, bool) {
	for _, m := range supportedModels {
		if m.Name == model {
			return m.DefaultEncoding, true
		}
	}
	return "", false
}

// IsSupportedModel reports whether model is in the supported table
func IsSupportedModel(model string) bool {
	_, ok := DefaultEncoding(model)
	return ok
}

func encodingFor(model string) string {
	if enc, ok := DefaultEncoding(model); ok {
		return enc
	}
	return FallbackEncoding
}
