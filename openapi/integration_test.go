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

package openapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rivaas.dev/params/openapi"
)

var _ = Describe("OpenAPI Integration", Label("integration"), func() {
	var (
		f       *fixture
		manager *openapi.Manager
	)

	BeforeEach(func() {
		f = newFixture()
		manager = openapi.NewManager(openapi.MustNew(
			openapi.WithTitle("Items API", "1.0.0"),
			openapi.WithInfoDescription("Integration test API"),
			openapi.WithServer("http://localhost:8080", "Local development"),
			openapi.WithTag("items", "Item operations"),
		), f.resolver)

		Expect(manager.Register(http.MethodGet, "/items/", f.readItems, openapi.WithTags("items"))).To(Succeed())
		Expect(manager.Register(http.MethodGet, "/items/:item_id", f.readItem, openapi.WithTags("items"),
			openapi.WithResponse(http.StatusOK, "The item", item{}),
			openapi.WithResponse(http.StatusNotFound, "Item not found", nil),
		)).To(Succeed())
		Expect(manager.Register(http.MethodPut, "/items/{item_id}", f.update, openapi.WithTags("items"))).To(Succeed())
		Expect(manager.Register(http.MethodPost, "/files/", f.upload)).To(Succeed())
		Expect(manager.Register(http.MethodGet, "/users/me", f.readMe, openapi.WithSummary("Read the current user"))).To(Succeed())
	})

	Describe("Spec Generation", func() {
		It("should generate a valid OpenAPI 3 document", func() {
			doc, err := manager.Document()
			Expect(err).NotTo(HaveOccurred())

			Expect(doc.OpenAPI).To(Equal("3.0.3"))
			Expect(doc.Info.Title).To(Equal("Items API"))
			Expect(doc.Servers).To(HaveLen(1))
			Expect(doc.Tags).To(HaveLen(1))
			Expect(doc.Paths.Len()).To(Equal(4))

			Expect(doc.Validate(context.Background(), openapi3.DisableExamplesValidation())).To(Succeed())
		})

		It("should list every security scheme once", func() {
			doc, err := manager.Document()
			Expect(err).NotTo(HaveOccurred())

			Expect(doc.Components.SecuritySchemes).To(HaveLen(1))
			scheme := doc.Components.SecuritySchemes["oauth2"].Value
			Expect(scheme.Type).To(Equal("oauth2"))
			Expect(scheme.Flows.Password.TokenURL).To(Equal("/token"))
			Expect(scheme.Flows.Password.Scopes).To(HaveKey("write"))
		})

		It("should keep scopes in declaration order", func() {
			doc, err := manager.Document()
			Expect(err).NotTo(HaveOccurred())

			put := doc.Paths.Value("/items/{item_id}").Put
			Expect(put).NotTo(BeNil())
			Expect(*put.Security).To(Equal(openapi3.SecurityRequirements{{"oauth2": {"read", "write"}}}))

			me := doc.Paths.Value("/users/me").Get
			Expect(*me.Security).To(Equal(openapi3.SecurityRequirements{{"oauth2": {"read"}}}))
		})

		It("should decode as JSON", func() {
			specJSON, etag, err := manager.GenerateSpec()
			Expect(err).NotTo(HaveOccurred())
			Expect(etag).To(HavePrefix(`"`))

			var decoded map[string]any
			Expect(json.Unmarshal(specJSON, &decoded)).To(Succeed())
			Expect(decoded).To(HaveKeyWithValue("openapi", "3.0.3"))
			Expect(decoded["paths"]).To(HaveKey("/users/me"))
		})

		It("should load back through the kin-openapi loader", func() {
			specJSON, _, err := manager.GenerateSpec()
			Expect(err).NotTo(HaveOccurred())

			loaded, err := openapi3.NewLoader().LoadFromData(specJSON)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Paths.Find("/items/{item_id}")).NotTo(BeNil())
		})
	})

	Describe("Concurrent Access", func() {
		It("should serve the same document to concurrent readers", func() {
			handler := manager.Handler()

			var wg sync.WaitGroup
			etags := make([]string, 10)
			for i := range etags {
				wg.Go(func() {
					defer GinkgoRecover()

					w := httptest.NewRecorder()
					handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
					Expect(w.Code).To(Equal(http.StatusOK))
					etags[i] = w.Header().Get("ETag")
				})
			}
			wg.Wait()

			for _, etag := range etags {
				Expect(etag).To(Equal(etags[0]))
			}
		})
	})

	Describe("Swagger 2", func() {
		It("should describe the same routes", func() {
			sw, err := manager.Swagger()
			Expect(err).NotTo(HaveOccurred())

			Expect(sw.Paths.Paths).To(HaveLen(4))
			Expect(sw.SecurityDefinitions).To(HaveKey("oauth2"))

			data, err := json.Marshal(sw)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"swagger":"2.0"`))
		})
	})
})
