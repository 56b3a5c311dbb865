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

// config collects option values before a descriptor is built.
type config struct {
	def             Default
	defaultSet      bool // WithDefault was used (even with nil)
	alias           string
	title           string
	description     string
	deprecated      bool
	example         any
	hasExample      bool
	examples        []any
	constraints     Constraints
	includeInSchema bool
	extra           map[string]any

	// header only
	convertUnderscores bool

	// body only
	mediaType string
	embed     bool
}

func defaultConfig() *config {
	return &config{
		includeInSchema:    true,
		convertUnderscores: true,
	}
}

func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	return cfg
}

// Option configures a parameter or body descriptor.
type Option func(*config)

// WithDefault makes the input optional with the given default value.
// nil is a valid default and still makes the input optional.
//
// Not allowed on [Path].
func WithDefault(v any) Option {
	return func(c *config) {
		c.def = Value(v)
		c.defaultSet = true
	}
}

// WithRequired marks the input as required. This is the default for every
// descriptor; it exists so declarations can say so explicitly.
func WithRequired() Option {
	return func(c *config) {
		c.def = Required()
		c.defaultSet = false
	}
}

// WithAlias overrides the name used to look up the raw value.
//
// Example:
//
//	params.Query(params.WithAlias("item-query"))
func WithAlias(alias string) Option {
	return func(c *config) { c.alias = alias }
}

// WithTitle sets the display title.
func WithTitle(title string) Option {
	return func(c *config) { c.title = title }
}

// WithDescription sets the display description.
func WithDescription(description string) Option {
	return func(c *config) { c.description = description }
}

// WithDeprecated marks the input as deprecated in documentation.
func WithDeprecated() Option {
	return func(c *config) { c.deprecated = true }
}

// WithExample sets a single example value.
func WithExample(v any) Option {
	return func(c *config) {
		c.example = v
		c.hasExample = true
	}
}

// WithExamples appends example values.
func WithExamples(examples ...any) Option {
	return func(c *config) { c.examples = append(c.examples, examples...) }
}

// WithIncludeInSchema controls whether documentation lists the input.
func WithIncludeInSchema(include bool) Option {
	return func(c *config) { c.includeInSchema = include }
}

// WithGt requires numeric values greater than v.
func WithGt(v float64) Option {
	return func(c *config) { c.constraints.Gt = &v }
}

// WithGe requires numeric values greater than or equal to v.
func WithGe(v float64) Option {
	return func(c *config) { c.constraints.Ge = &v }
}

// WithLt requires numeric values less than v.
func WithLt(v float64) Option {
	return func(c *config) { c.constraints.Lt = &v }
}

// WithLe requires numeric values less than or equal to v.
func WithLe(v float64) Option {
	return func(c *config) { c.constraints.Le = &v }
}

// WithMinLength sets the minimum string length.
func WithMinLength(n int) Option {
	return func(c *config) { c.constraints.MinLength = &n }
}

// WithMaxLength sets the maximum string length.
func WithMaxLength(n int) Option {
	return func(c *config) { c.constraints.MaxLength = &n }
}

// WithPattern sets a regular expression string values must match.
// The expression is not compiled here.
func WithPattern(pattern string) Option {
	return func(c *config) { c.constraints.Pattern = pattern }
}

// WithExtra adds an additional JSON Schema keyword, for example
// WithExtra("multipleOf", 5). Extra keywords are enforced by the
// validation package and emitted by documentation.
func WithExtra(key string, value any) Option {
	return func(c *config) {
		if c.extra == nil {
			c.extra = make(map[string]any)
		}
		c.extra[key] = value
	}
}

// WithConvertUnderscores controls the underscore-to-hyphen header name
// mapping. Only [Header] reads it; it defaults to true.
func WithConvertUnderscores(convert bool) Option {
	return func(c *config) { c.convertUnderscores = convert }
}

// WithMediaType sets the expected body media type.
// Only [Body] reads it; [Form] and [File] fix their own.
func WithMediaType(mediaType string) Option {
	return func(c *config) { c.mediaType = mediaType }
}

// WithEmbed nests the body field under its own key in the body object.
// Only [Body] reads it; [Form] and [File] always embed.
func WithEmbed(embed bool) Option {
	return func(c *config) { c.embed = embed }
}

// dependsConfig collects Depends/Security option values.
type dependsConfig struct {
	useCache bool
	scopes   []string
}

// DependsOption configures a [Dependency].
type DependsOption func(*dependsConfig)

// WithoutCache makes every use of the dependency invoke its callable, even
// within a single request. The first uncached result still becomes the
// request's cached value for uses that keep the cache.
func WithoutCache() DependsOption {
	return WithUseCache(false)
}

// WithUseCache sets whether the result is shared within one request.
// The default is true.
func WithUseCache(useCache bool) DependsOption {
	return func(c *dependsConfig) { c.useCache = useCache }
}

// WithScopes appends required security scopes, keeping their order.
// Only [Security] reads them.
func WithScopes(scopes ...string) DependsOption {
	return func(c *dependsConfig) { c.scopes = append(c.scopes, scopes...) }
}
