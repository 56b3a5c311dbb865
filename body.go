// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package params

// BodyInfo describes an input bound to the request body, a form field or
// an uploaded file.
type BodyInfo struct {
	Field
	kind      BodyKind
	mediaType string
	embed     bool
}

func (*BodyInfo) isDescriptor() {}

// Kind returns which body constructor built the descriptor.
func (b *BodyInfo) Kind() BodyKind { return b.kind }

// MediaType returns the content type the body is expected to have.
func (b *BodyInfo) MediaType() string { return b.mediaType }

// Embed reports whether the field sits under its own key in the body
// object. A resolver may still embed a non-embedded body when a handler
// declares several bodies.
func (b *BodyInfo) Embed() bool { return b.embed }

// IsForm reports whether the body is read from form data (Form or File).
func (b *BodyInfo) IsForm() bool { return b.kind == BodyKindForm || b.kind == BodyKindFile }

// LookupName returns the body key for a field declared as name.
func (b *BodyInfo) LookupName(name string) string { return b.name(name) }

// String renders the descriptor as its constructor call, e.g. Body(...).
func (b *BodyInfo) String() string {
	return b.kind.String() + "(" + b.def.String() + ")"
}

// Body declares a request body input. The media type defaults to
// application/json and the body is not embedded unless WithEmbed(true).
//
// Example:
//
//	item := params.Body()
//	importance := params.Body(params.WithEmbed(true), params.WithGt(0))
func Body(opts ...Option) *BodyInfo {
	cfg := applyOptions(opts)
	mediaType := cfg.mediaType
	if mediaType == "" {
		mediaType = MediaTypeJSON
	}

	return &BodyInfo{
		Field:     newField(cfg),
		kind:      BodyKindBody,
		mediaType: mediaType,
		embed:     cfg.embed,
	}
}

// Form declares a form field. It is always embedded and always uses
// application/x-www-form-urlencoded; WithEmbed and WithMediaType are ignored.
func Form(opts ...Option) *BodyInfo {
	return &BodyInfo{
		Field:     newField(applyOptions(opts)),
		kind:      BodyKindForm,
		mediaType: MediaTypeForm,
		embed:     true,
	}
}

// File declares an uploaded file. It behaves like [Form] with the media type
// fixed to multipart/form-data.
func File(opts ...Option) *BodyInfo {
	b := Form(opts...)
	b.kind = BodyKindFile
	b.mediaType = MediaTypeMultipart

	return b
}
