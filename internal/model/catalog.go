package model

import (
	"fmt"
	"sort"
)

// Variant describes one downloadable whisper model.
type Variant struct {
	ID       string
	FileName string
	URL      string
	// SizeMB is the approximate download size, for display only.
	SizeMB int
}

const hfBase = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// catalog lists the ggml models the store knows how to fetch.
var catalog = map[string]Variant{
	"tiny.en":        {ID: "tiny.en", FileName: "ggml-tiny.en.bin", URL: hfBase + "ggml-tiny.en.bin", SizeMB: 75},
	"base":           {ID: "base", FileName: "ggml-base.bin", URL: hfBase + "ggml-base.bin", SizeMB: 142},
	"base.en":        {ID: "base.en", FileName: "ggml-base.en.bin", URL: hfBase + "ggml-base.en.bin", SizeMB: 142},
	"small.en":       {ID: "small.en", FileName: "ggml-small.en.bin", URL: hfBase + "ggml-small.en.bin", SizeMB: 466},
	"large-v3-turbo": {ID: "large-v3-turbo", FileName: "ggml-large-v3-turbo.bin", URL: hfBase + "ggml-large-v3-turbo.bin", SizeMB: 1536},
}

// DefaultModelID is loaded when no active-model file exists yet.
const DefaultModelID = "base.en"

// Lookup resolves a catalog id.
func Lookup(id string) (Variant, error) {
	v, ok := catalog[id]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	return v, nil
}

// Variants returns all catalog entries sorted by id.
func Variants() []Variant {
	out := make([]Variant, 0, len(catalog))
	for _, v := range catalog {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
