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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/params"
)

type conn struct{}

type fakeCallable struct{}

func (fakeCallable) Name() string { return "fake" }

func TestPlan_Cached(t *testing.T) {
	t.Parallel()

	r := MustNew()
	d := MustDependant("h", noop, In[int]("limit", params.Query(params.WithDefault(10))))

	p1, err := r.Plan(d)
	require.NoError(t, err)
	p2, err := r.Plan(d)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Same(t, d, p1.Dependant())
}

func TestPlan_Errors(t *testing.T) {
	t.Parallel()

	t.Run("cycle through provider", func(t *testing.T) {
		t.Parallel()

		self := MustDependant("get_conn", noop, In[*conn]("parent", params.Depends(nil)))
		r := MustNew(Provide[*conn](self))

		_, err := r.Plan(self)
		require.ErrorIs(t, err, ErrCycle)

		var perr *PlanError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, []string{"get_conn", "get_conn"}, perr.Chain)
		assert.Equal(t, "parent", perr.Input)
		assert.Contains(t, err.Error(), "get_conn -> get_conn")
	})

	t.Run("no provider", func(t *testing.T) {
		t.Parallel()

		d := MustDependant("h", noop, In[*conn]("db", params.Depends(nil)))
		_, err := MustNew().Plan(d)
		require.ErrorIs(t, err, ErrNoProvider)
	})

	t.Run("foreign callable", func(t *testing.T) {
		t.Parallel()

		d := MustDependant("h", noop, In[int]("x", params.Depends(fakeCallable{})))
		_, err := MustNew().Plan(d)
		require.ErrorIs(t, err, ErrUnsupportedCallable)
	})

	t.Run("file input type", func(t *testing.T) {
		t.Parallel()

		d := MustDependant("h", noop, In[string]("upload", params.File()))
		_, err := MustNew().Plan(d)
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("nil dependant", func(t *testing.T) {
		t.Parallel()

		_, err := MustNew().Plan(nil)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestPlan_Provider(t *testing.T) {
	t.Parallel()

	getConn := MustDependant("get_conn", noop)
	d := MustDependant("h", noop, In[*conn]("db", params.Depends(nil)))

	p, err := MustNew(Provide[*conn](getConn)).Plan(d)
	require.NoError(t, err)
	assert.Equal(t, []*Dependant{getConn}, p.Dependencies())
}

func TestPlan_BodyEmbedding(t *testing.T) {
	t.Parallel()

	r := MustNew()

	single := MustDependant("create_item", noop, In[item]("item", params.Body()))
	p, err := r.Plan(single)
	require.NoError(t, err)
	require.Len(t, p.Bodies(), 1)
	assert.False(t, p.Bodies()[0].Embed)
	assert.Equal(t, "item", p.Bodies()[0].Name)

	embedded := MustDependant("create_item", noop, In[item]("item", params.Body(params.WithEmbed(true))))
	p, err = r.Plan(embedded)
	require.NoError(t, err)
	assert.True(t, p.Bodies()[0].Embed)

	getUser := MustDependant("get_user", noop, In[user]("user", params.Body()))
	several := MustDependant("update_item", noop,
		In[item]("item", params.Body()),
		In[user]("u", params.Depends(getUser)),
	)
	p, err = r.Plan(several)
	require.NoError(t, err)
	bodies := p.Bodies()
	require.Len(t, bodies, 2)
	for _, b := range bodies {
		assert.True(t, b.Embed, b.Name)
	}
	assert.Same(t, getUser, bodies[1].Owner)
}

func TestPlan_ParamsDeduplicated(t *testing.T) {
	t.Parallel()

	common := MustDependant("common", noop,
		In[string]("q", params.Query(params.WithDefault(nil))),
		In[string]("x_token", params.Header()),
	)
	d := MustDependant("h", noop,
		In[string]("a", params.Depends(common)),
		In[string]("b", params.Depends(common)),
		In[int]("item_id", params.MustPath()),
	)

	p, err := MustNew().Plan(d)
	require.NoError(t, err)

	ps := p.Params()
	require.Len(t, ps, 3)
	assert.Equal(t, "q", ps[0].Name)
	assert.Equal(t, "X-Token", ps[1].Name)
	assert.Equal(t, "item_id", ps[2].Name)
	assert.Equal(t, []*Dependant{common}, p.Dependencies())
}

func TestPlan_SecurityScopes(t *testing.T) {
	t.Parallel()

	bearer := MustSecurityDependant("bearer", SecurityScheme{Scheme: "bearer"}, noop)
	currentUser := MustDependant("current_user", noop,
		In[string]("token", params.Security(bearer, params.WithScopes("me"))),
	)

	t.Run("scopes keep declaration order", func(t *testing.T) {
		t.Parallel()

		d := MustDependant("h", noop, In[principal]("p", params.Security(bearer, params.WithScopes("read", "write"))))
		p, err := MustNew().Plan(d)
		require.NoError(t, err)

		sec := p.Security()
		require.Len(t, sec, 1)
		assert.Equal(t, "bearer", sec[0].Scheme.Name)
		assert.Equal(t, []string{"read", "write"}, sec[0].Scopes)
	})

	t.Run("scopes accumulate from the root", func(t *testing.T) {
		t.Parallel()

		d := MustDependant("h", noop, In[principal]("p", params.Security(currentUser, params.WithScopes("items"))))
		p, err := MustNew().Plan(d)
		require.NoError(t, err)

		sec := p.Security()
		require.Len(t, sec, 1)
		assert.Equal(t, []string{"items", "me"}, sec[0].Scopes)
	})

	t.Run("plain dependency has no scopes", func(t *testing.T) {
		t.Parallel()

		d := MustDependant("h", noop, In[string]("token", params.Depends(bearer)))
		p, err := MustNew().Plan(d)
		require.NoError(t, err)

		sec := p.Security()
		require.Len(t, sec, 1)
		assert.Empty(t, sec[0].Scopes)
	})

	t.Run("requirements merge per scheme", func(t *testing.T) {
		t.Parallel()

		d := MustDependant("h", noop,
			In[string]("a", params.Security(bearer, params.WithScopes("read"))),
			In[string]("b", params.Security(bearer, params.WithScopes("write", "read"))),
		)
		p, err := MustNew().Plan(d)
		require.NoError(t, err)

		sec := p.Security()
		require.Len(t, sec, 1)
		assert.Equal(t, []string{"read", "write"}, sec[0].Scopes)
	})
}

func TestMemoKey(t *testing.T) {
	t.Parallel()

	d := MustDependant("d", noop)
	assert.Equal(t, memoKey(d, []string{"b", "a"}), memoKey(d, []string{"a", "b", "a"}))
	assert.NotEqual(t, memoKey(d, nil), memoKey(d, []string{"a"}))
}
