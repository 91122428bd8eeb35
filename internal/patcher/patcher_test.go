package patcher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windguard/edgeprov/internal/resource"
	edgetesting "github.com/windguard/edgeprov/internal/testing"
)

// memoryApplier keeps the document as JSON and applies merge patches to it
// the way the API server does.
type memoryApplier struct {
	mu       sync.Mutex
	doc      []byte
	reads    int
	patches  [][]byte
	readErr  error
	writeErr error
}

func newMemoryApplier(t *testing.T, doc map[string]any) *memoryApplier {
	t.Helper()
	if doc == nil {
		doc = map[string]any{}
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return &memoryApplier{doc: raw}
}

func (a *memoryApplier) ReadDocument(_ context.Context, _ resource.Ref) (map[string]any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reads++
	if a.readErr != nil {
		return nil, a.readErr
	}
	var doc map[string]any
	if err := json.Unmarshal(a.doc, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (a *memoryApplier) WritePatch(_ context.Context, _ resource.Ref, patch []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.writeErr != nil {
		return a.writeErr
	}
	a.patches = append(a.patches, patch)
	merged, err := jsonpatch.MergePatch(a.doc, patch)
	if err != nil {
		return err
	}
	a.doc = merged
	return nil
}

func (a *memoryApplier) document(t *testing.T) map[string]any {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	var doc map[string]any
	require.NoError(t, json.Unmarshal(a.doc, &doc))
	return doc
}

var console = resource.Ref{Name: "cluster"}

func pluginTarget(element any) Target {
	return Target{Resource: console, CollectionPath: "spec.plugins", Element: element}
}

func TestEnsureElementPresent_Idempotent(t *testing.T) {
	t.Parallel()

	applier := newMemoryApplier(t, map[string]any{
		"metadata": map[string]any{"name": "cluster"},
		"spec": map[string]any{
			"plugins":         []any{"monitoring-plugin"},
			"managementState": "Managed",
		},
	})
	p := New(applier)
	ctx := edgetesting.TestContext(t)

	change, err := p.EnsureElementPresent(ctx, pluginTarget("flightctl-plugin"))
	require.NoError(t, err)
	assert.Equal(t, Applied, change)

	change, err = p.EnsureElementPresent(ctx, pluginTarget("flightctl-plugin"))
	require.NoError(t, err)
	assert.Equal(t, Unchanged, change)

	doc := applier.document(t)
	assert.Equal(t, []any{"monitoring-plugin", "flightctl-plugin"}, doc["spec"].(map[string]any)["plugins"])
	assert.Equal(t, "Managed", doc["spec"].(map[string]any)["managementState"])
	assert.Equal(t, map[string]any{"name": "cluster"}, doc["metadata"])

	assert.Len(t, applier.patches, 1, "second call must not write")
	assert.Equal(t, 2, applier.reads, "every call reads the document")
}

func TestEnsureElementPresent_PatchOnlyTouchesCollection(t *testing.T) {
	t.Parallel()

	applier := newMemoryApplier(t, map[string]any{
		"spec": map[string]any{
			"plugins":         []any{"a"},
			"managementState": "Managed",
		},
		"status": map[string]any{"observedGeneration": 4},
	})

	_, err := New(applier).EnsureElementPresent(edgetesting.TestContext(t), pluginTarget("b"))
	require.NoError(t, err)

	require.Len(t, applier.patches, 1)
	assert.JSONEq(t, `{"spec":{"plugins":["a","b"]}}`, string(applier.patches[0]))
}

func TestEnsureElementPresent_MissingCollection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  map[string]any
	}{
		{"no spec", map[string]any{"metadata": map[string]any{"name": "cluster"}}},
		{"spec without plugins", map[string]any{"spec": map[string]any{"managementState": "Managed"}}},
		{"null plugins", map[string]any{"spec": map[string]any{"plugins": nil}}},
		{"empty document", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			applier := newMemoryApplier(t, tt.doc)

			change, err := New(applier).EnsureElementPresent(edgetesting.TestContext(t), pluginTarget("flightctl-plugin"))
			require.NoError(t, err)
			assert.Equal(t, Applied, change)

			doc := applier.document(t)
			assert.Equal(t, []any{"flightctl-plugin"}, doc["spec"].(map[string]any)["plugins"])
		})
	}
}

func TestEnsureElementPresent_StructuralEquality(t *testing.T) {
	t.Parallel()

	type port struct {
		Name string `json:"name"`
		Port int    `json:"port"`
	}

	applier := newMemoryApplier(t, map[string]any{
		"spec": map[string]any{
			"ports": []any{
				map[string]any{"port": 443, "name": "https"},
			},
		},
	})
	p := New(applier)
	target := Target{Resource: console, CollectionPath: "spec.ports"}

	target.Element = port{Name: "https", Port: 443}
	change, err := p.EnsureElementPresent(edgetesting.TestContext(t), target)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, change, "key order and numeric types must not matter")

	// A present element with different content is a different element.
	target.Element = port{Name: "https", Port: 8443}
	change, err = p.EnsureElementPresent(edgetesting.TestContext(t), target)
	require.NoError(t, err)
	assert.Equal(t, Applied, change)

	ports := applier.document(t)["spec"].(map[string]any)["ports"].([]any)
	assert.Len(t, ports, 2)
}

func TestEnsureElementPresent_SubstringIsNotMembership(t *testing.T) {
	t.Parallel()

	applier := newMemoryApplier(t, map[string]any{
		"spec": map[string]any{"plugins": []any{"flightctl-plugin-v2"}},
	})

	change, err := New(applier).EnsureElementPresent(edgetesting.TestContext(t), pluginTarget("flightctl-plugin"))
	require.NoError(t, err)
	assert.Equal(t, Applied, change)
}

func TestEnsureElementPresent_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		doc        map[string]any
		readErr    error
		writeErr   error
		path       string
		element    any
		wantReason string
	}{
		{
			name:       "collection is a string",
			doc:        map[string]any{"spec": map[string]any{"plugins": "flightctl-plugin"}},
			path:       "spec.plugins",
			wantReason: "collection is not a list",
		},
		{
			name:       "parent is a list",
			doc:        map[string]any{"spec": []any{"x"}},
			path:       "spec.plugins",
			wantReason: "collection is not a list",
		},
		{
			name:       "read fails",
			readErr:    errors.New("forbidden"),
			path:       "spec.plugins",
			wantReason: "failed to read document",
		},
		{
			name:       "write rejected",
			doc:        map[string]any{"spec": map[string]any{}},
			writeErr:   errors.New("admission webhook denied the request"),
			path:       "spec.plugins",
			wantReason: "patch rejected",
		},
		{
			name:       "empty path segment",
			doc:        map[string]any{},
			path:       "spec..plugins",
			wantReason: "invalid collection path",
		},
		{
			name:       "element not serialisable",
			doc:        map[string]any{},
			path:       "spec.plugins",
			element:    make(chan int),
			wantReason: "element is not JSON-serialisable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			applier := newMemoryApplier(t, tt.doc)
			applier.readErr = tt.readErr
			applier.writeErr = tt.writeErr

			element := tt.element
			if element == nil {
				element = "flightctl-plugin"
			}

			change, err := New(applier).EnsureElementPresent(edgetesting.TestContext(t),
				Target{Resource: console, CollectionPath: tt.path, Element: element})
			require.Error(t, err)
			assert.Equal(t, Unchanged, change)
			assert.True(t, IsPatchFailed(err))

			var pf *PatchFailedError
			require.ErrorAs(t, err, &pf)
			assert.Equal(t, tt.wantReason, pf.Reason)
			assert.Equal(t, console, pf.Resource)
			assert.Contains(t, err.Error(), "failed to patch cluster")

			if tt.writeErr != nil {
				assert.ErrorIs(t, err, tt.writeErr)
			}
			assert.Empty(t, applier.patches)
		})
	}
}

func TestEnsureElementPresent_ReadsBeforeEveryWrite(t *testing.T) {
	t.Parallel()

	applier := newMemoryApplier(t, map[string]any{"spec": map[string]any{"plugins": []any{}}})
	p := New(applier)
	ctx := edgetesting.TestContext(t)

	_, err := p.EnsureElementPresent(ctx, pluginTarget("a"))
	require.NoError(t, err)

	// Another writer changes the list between calls.
	require.NoError(t, applier.WritePatch(ctx, console, []byte(`{"spec":{"plugins":["a","other"]}}`)))

	_, err = p.EnsureElementPresent(ctx, pluginTarget("b"))
	require.NoError(t, err)

	assert.Equal(t, []any{"a", "other", "b"}, applier.document(t)["spec"].(map[string]any)["plugins"])
}
