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

package resolve

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sync"

	"rivaas.dev/params"
	"rivaas.dev/params/binding"
	riverrors "rivaas.dev/params/errors"
	"rivaas.dev/params/validation"
)

// bodySource reads the request body once and serves every body, form and
// file input of the resolution.
type bodySource struct {
	rs *request

	once      sync.Once
	err       error
	mediaType string
	raw       []byte
	isForm    bool
	form      binding.ValueGetter
	files     *binding.MultipartGetter

	mu         sync.Mutex
	members    map[string]map[string]binding.Member
	membersErr map[string]error
}

func (b *bodySource) load() error {
	b.once.Do(func() {
		b.err = b.read()
	})

	return b.err
}

func (b *bodySource) read() error {
	req := b.rs.req
	cfg := b.rs.r.cfg
	b.mediaType = binding.MediaTypeOf(req.Header.Get("Content-Type"))

	switch b.mediaType {
	case params.MediaTypeMultipart:
		b.isForm = true
		if err := req.ParseMultipartForm(cfg.maxMemory); err != nil {
			return readError(err)
		}
		if mf := req.MultipartForm; mf != nil {
			b.rs.cleanups.add(mf.RemoveAll)
			b.files = binding.NewMultipartGetter(mf)
			b.form = nonEmpty(b.files)
		}

	case params.MediaTypeForm:
		b.isForm = true
		if req.Body != nil {
			req.Body = http.MaxBytesReader(nil, req.Body, cfg.maxBodyBytes)
		}
		if err := req.ParseForm(); err != nil {
			return readError(err)
		}
		b.form = nonEmpty(binding.NewFormGetter(req.PostForm))

	default:
		if req.Body == nil || req.Body == http.NoBody {
			return nil
		}
		data, err := io.ReadAll(http.MaxBytesReader(nil, req.Body, cfg.maxBodyBytes))
		if err != nil {
			return readError(err)
		}
		b.raw = data
	}

	return nil
}

// membersFor splits the payload into top-level members, once per media type.
func (b *bodySource) membersFor(binder *binding.Binder, mediaType string) (map[string]binding.Member, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if m, ok := b.members[mediaType]; ok {
		return m, nil
	}
	if err, ok := b.membersErr[mediaType]; ok {
		return nil, err
	}

	m, err := binder.Members(mediaType, b.raw)
	if b.members == nil {
		b.members = make(map[string]map[string]binding.Member)
		b.membersErr = make(map[string]error)
	}
	if err != nil {
		b.membersErr[mediaType] = err
		return nil, err
	}
	b.members[mediaType] = m

	return m, nil
}

func readError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return riverrors.WithStatus(fmt.Errorf("request body too large: %w", err), http.StatusRequestEntityTooLarge)
	}

	return riverrors.WithStatus(fmt.Errorf("read request body: %w", err), http.StatusBadRequest)
}

// nonEmpty treats form fields sent without a value as absent.
func nonEmpty(g binding.ValueGetter) binding.ValueGetter {
	return binding.GetterFunc(func(key string) ([]string, bool) {
		vals := g.GetAll(key)
		for _, v := range vals {
			if v != "" {
				return vals, true
			}
		}

		return nil, false
	})
}

// bodyInput resolves a body, form or file input.
func (rs *request) bodyInput(n *node, bi *boundInput) (any, error) {
	if err := rs.body.load(); err != nil {
		return nil, err
	}

	switch bi.body.Info.Kind() {
	case params.BodyKindForm:
		return rs.formField(n, bi)
	case params.BodyKindFile:
		return rs.fileField(n, bi)
	default:
		return rs.decodedBody(n, bi)
	}
}

func (rs *request) formField(n *node, bi *boundInput) (any, error) {
	pb := bi.body
	path := validation.JoinPath("body", pb.Name)

	if rs.body.form == nil {
		rs.inputResolved(n, bi, "form", false)
		return rs.fallback(path, &pb.Info.Field, bi.in.Type)
	}

	v, found, err := rs.r.binder.Lookup(rs.body.form, binding.SourceForm, pb.Name, bi.in.Type)
	rs.inputResolved(n, bi, "form", found && err == nil)
	if err != nil {
		return nil, typeError(path, err)
	}
	if !found {
		return rs.fallback(path, &pb.Info.Field, bi.in.Type)
	}

	value := v.Interface()
	if err = rs.r.validator.CheckField(path, &pb.Info.Field, value); err != nil {
		return nil, err
	}

	return value, nil
}

func (rs *request) fileField(n *node, bi *boundInput) (any, error) {
	pb := bi.body
	path := validation.JoinPath("body", pb.Name)

	files := rs.body.files
	if files == nil || !files.HasFile(pb.Name) {
		rs.inputResolved(n, bi, "file", false)
		return rs.fallback(path, &pb.Info.Field, bi.in.Type)
	}
	rs.inputResolved(n, bi, "file", true)

	switch bi.in.Type {
	case filesType:
		return files.Files(pb.Name)
	case bytesType:
		f, err := files.File(pb.Name)
		if err != nil {
			return nil, err
		}
		data, err := f.Bytes()
		if err != nil {
			return nil, riverrors.WithStatus(err, http.StatusBadRequest)
		}

		return data, nil
	default:
		return files.File(pb.Name)
	}
}

func (rs *request) decodedBody(n *node, bi *boundInput) (any, error) {
	pb := bi.body
	typ := bi.in.Type
	path := "body"
	if pb.Embed {
		path = validation.JoinPath("body", pb.Name)
	}

	if rs.body.isForm {
		if pb.Embed {
			// Trees mixing Body and Form inputs read every member from the form.
			return rs.formField(n, bi)
		}

		return nil, &binding.BindError{
			Source: binding.SourceBody,
			Reason: fmt.Sprintf("expected %s body, got %s", pb.Info.MediaType(), rs.body.mediaType),
			Err:    binding.ErrUnsupportedContentType,
		}
	}

	if len(bytes.TrimSpace(rs.body.raw)) == 0 {
		rs.inputResolved(n, bi, "body", false)
		return rs.fallback(path, &pb.Info.Field, typ)
	}

	mediaType := rs.body.mediaType
	if mediaType == "" {
		mediaType = pb.Info.MediaType()
	}

	out := reflect.New(typ)
	if pb.Embed {
		members, err := rs.body.membersFor(rs.r.binder, mediaType)
		if err != nil {
			return nil, bodyError("body", err)
		}
		member, ok := members[pb.Name]
		if !ok {
			rs.inputResolved(n, bi, "body", false)
			return rs.fallback(path, &pb.Info.Field, typ)
		}
		if err = member(out.Interface()); err != nil {
			return nil, bodyError(path, err)
		}
	} else if err := rs.r.binder.Decode(mediaType, rs.body.raw, out.Interface()); err != nil {
		return nil, bodyError(path, err)
	}
	rs.inputResolved(n, bi, "body", true)

	value := out.Elem().Interface()

	var verr validation.Error
	verr.AddError(rs.r.validator.CheckField(path, &pb.Info.Field, value))
	verr.AddError(rs.r.validator.Struct(path, value))
	if verr.HasErrors() {
		return nil, &verr
	}

	return value, nil
}

// bodyError turns a decoding failure into a request error. Unsupported
// media types stay binding errors (415).
func bodyError(path string, err error) error {
	if errors.Is(err, binding.ErrUnsupportedContentType) {
		return err
	}

	return &validation.Error{Fields: []validation.FieldError{{
		Path:    path,
		Code:    validation.CodeBody,
		Message: err.Error(),
	}}}
}
