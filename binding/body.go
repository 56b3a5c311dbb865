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

package binding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"
)

// Body media types understood by [Binder.Decode].
const (
	MediaTypeJSON    = "application/json"
	MediaTypeYAML    = "application/yaml"
	MediaTypeTOML    = "application/toml"
	MediaTypeMsgPack = "application/msgpack"
	MediaTypeProto   = "application/x-protobuf"
)

// MediaTypeOf returns the lower-cased media type of a Content-Type header
// value without its parameters. Malformed values yield "".
func MediaTypeOf(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	return mt
}

// Member decodes one member of an object payload into out.
type Member func(out any) error

type bodyFormat int

const (
	formatUnknown bodyFormat = iota
	formatJSON
	formatYAML
	formatTOML
	formatMsgPack
	formatProto
)

func formatOf(mediaType string) bodyFormat {
	mt := strings.ToLower(mediaType)
	switch mt {
	case MediaTypeJSON, "text/json":
		return formatJSON
	case MediaTypeYAML, "application/x-yaml", "text/yaml", "text/x-yaml":
		return formatYAML
	case MediaTypeTOML, "text/toml", "application/x-toml":
		return formatTOML
	case MediaTypeMsgPack, "application/x-msgpack", "application/vnd.msgpack":
		return formatMsgPack
	case MediaTypeProto, "application/protobuf", "application/vnd.google.protobuf":
		return formatProto
	}

	switch {
	case strings.HasSuffix(mt, "+json"):
		return formatJSON
	case strings.HasSuffix(mt, "+yaml"):
		return formatYAML
	}

	return formatUnknown
}

// Supports reports whether mediaType has a body decoder.
func Supports(mediaType string) bool {
	return formatOf(mediaType) != formatUnknown
}

// Decode decodes data of the given media type into out.
// out must be a non-nil pointer.
//
// Example:
//
//	var item Item
//	err := binder.Decode(binding.MediaTypeYAML, data, &item)
func (b *Binder) Decode(mediaType string, data []byte, out any) error {
	if rv := reflect.ValueOf(out); rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrOutMustBePointer
	}

	var err error
	switch formatOf(mediaType) {
	case formatJSON:
		err = b.decodeJSON(data, out)
	case formatYAML:
		err = b.decodeYAML(data, out)
	case formatTOML:
		err = b.decodeTOML(data, out)
	case formatMsgPack:
		err = b.decodeMsgPack(data, out)
	case formatProto:
		err = b.decodeProto(data, out)
	default:
		return &BindError{
			Source: SourceBody,
			Reason: fmt.Sprintf("no decoder for media type %q", mediaType),
			Err:    ErrUnsupportedContentType,
		}
	}
	if err != nil {
		return &BindError{
			Source: SourceBody,
			Type:   reflect.TypeOf(out).Elem(),
			Reason: err.Error(),
			Err:    err,
		}
	}

	return nil
}

// Members splits an object payload into its top-level members.
// Each [Member] decodes lazily with the same format and strictness as
// [Binder.Decode]. A payload that is not an object returns [ErrNotAnObject].
//
// Example:
//
//	members, err := binder.Members(binding.MediaTypeJSON, data)
//	if m, ok := members["item"]; ok {
//	    err = m(&item)
//	}
func (b *Binder) Members(mediaType string, data []byte) (map[string]Member, error) {
	var (
		members map[string]Member
		err     error
	)

	switch formatOf(mediaType) {
	case formatJSON:
		members, err = b.jsonMembers(data)
	case formatYAML:
		members, err = b.yamlMembers(data)
	case formatTOML:
		members, err = b.tomlMembers(data)
	case formatMsgPack:
		members, err = b.msgpackMembers(data)
	case formatProto:
		err = ErrNotAnObject
	default:
		return nil, &BindError{
			Source: SourceBody,
			Reason: fmt.Sprintf("no decoder for media type %q", mediaType),
			Err:    ErrUnsupportedContentType,
		}
	}
	if err != nil {
		return nil, &BindError{Source: SourceBody, Reason: err.Error(), Err: err}
	}

	return members, nil
}

func (b *Binder) decodeJSON(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if b.cfg.jsonUseNumber {
		dec.UseNumber()
	}
	if b.cfg.unknownFields == UnknownError {
		dec.DisallowUnknownFields()
	}

	return dec.Decode(out)
}

func (b *Binder) jsonMembers(data []byte) (map[string]Member, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotAnObject
		}

		return nil, err
	}
	if raw == nil {
		return nil, ErrNotAnObject
	}

	members := make(map[string]Member, len(raw))
	for k, v := range raw {
		members[k] = func(out any) error { return b.decodeJSON(v, out) }
	}

	return members, nil
}

func (b *Binder) decodeYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if b.cfg.unknownFields == UnknownError {
		dec.KnownFields(true)
	}

	return dec.Decode(out)
}

func (b *Binder) yamlMembers(data []byte) (map[string]Member, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	node := &doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, ErrNotAnObject
	}

	members := make(map[string]Member, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		value := node.Content[i+1]
		members[node.Content[i].Value] = func(out any) error {
			if b.cfg.unknownFields == UnknownError {
				raw, err := yaml.Marshal(value)
				if err != nil {
					return err
				}

				return b.decodeYAML(raw, out)
			}

			return value.Decode(out)
		}
	}

	return members, nil
}

func (b *Binder) decodeTOML(data []byte, out any) error {
	md, err := toml.Decode(string(data), out)
	if err != nil {
		return err
	}
	if b.cfg.unknownFields == UnknownError {
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown field %q", undecoded[0].String())
		}
	}

	return nil
}

func (b *Binder) tomlMembers(data []byte) (map[string]Member, error) {
	var raw map[string]toml.Primitive
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, err
	}

	members := make(map[string]Member, len(raw))
	for k, prim := range raw {
		members[k] = func(out any) error { return md.PrimitiveDecode(prim, out) }
	}

	return members, nil
}

func (b *Binder) newMsgPackDecoder(data []byte) *msgpack.Decoder {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if b.cfg.unknownFields == UnknownError {
		dec.DisallowUnknownFields(true)
	}

	return dec
}

func (b *Binder) decodeMsgPack(data []byte, out any) error {
	return b.newMsgPackDecoder(data).Decode(out)
}

func (b *Binder) msgpackMembers(data []byte) (map[string]Member, error) {
	var raw map[string]msgpack.RawMessage
	if err := b.newMsgPackDecoder(data).Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotAnObject
	}

	members := make(map[string]Member, len(raw))
	for k, v := range raw {
		members[k] = func(out any) error { return b.decodeMsgPack(v, out) }
	}

	return members, nil
}

// decodeProto unmarshals a protobuf payload. out is either a message or a
// pointer to a message pointer, which is allocated.
func (b *Binder) decodeProto(data []byte, out any) error {
	opts := proto.UnmarshalOptions{DiscardUnknown: b.cfg.unknownFields != UnknownError}

	if msg, ok := out.(proto.Message); ok {
		return opts.Unmarshal(data, msg)
	}

	rv := reflect.ValueOf(out).Elem()
	if rv.Kind() != reflect.Pointer {
		return fmt.Errorf("%w: %s is not a protobuf message", ErrUnsupportedType, rv.Type())
	}
	ptr := reflect.New(rv.Type().Elem())
	msg, ok := ptr.Interface().(proto.Message)
	if !ok {
		return fmt.Errorf("%w: %s is not a protobuf message", ErrUnsupportedType, rv.Type())
	}
	if err := opts.Unmarshal(data, msg); err != nil {
		return err
	}
	rv.Set(ptr)

	return nil
}
