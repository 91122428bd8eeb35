package patcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"k8s.io/apimachinery/pkg/api/equality"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/windguard/edgeprov/internal/resource"
)

// Applier reads and patches a shared document.
type Applier interface {
	// ReadDocument returns the current document. Each call is a fresh read.
	ReadDocument(ctx context.Context, ref resource.Ref) (map[string]any, error)

	// WritePatch applies a JSON merge patch to the document.
	WritePatch(ctx context.Context, ref resource.Ref, patch []byte) error
}

// Target names the list to update and the element that must be in it.
type Target struct {
	Resource resource.Ref

	// CollectionPath is a dot-separated path to the list, e.g. "spec.plugins".
	CollectionPath string

	// Element must be JSON-serialisable.
	Element any
}

// Change reports what EnsureElementPresent did.
type Change string

const (
	Unchanged Change = "Unchanged"
	Applied   Change = "Applied"
)

// PatchFailedError is returned when the document cannot be read, the path
// does not hold a list, or the write is rejected. It is never retried.
type PatchFailedError struct {
	Resource resource.Ref
	Reason   string
	Err      error
}

func (e *PatchFailedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to patch %s: %s", e.Resource, e.Reason)
	}
	return fmt.Sprintf("failed to patch %s: %s: %v", e.Resource, e.Reason, e.Err)
}

func (e *PatchFailedError) Unwrap() error {
	return e.Err
}

// IsPatchFailed reports whether err is or wraps a *PatchFailedError.
func IsPatchFailed(err error) bool {
	var pf *PatchFailedError
	return errors.As(err, &pf)
}

// Patcher ensures list membership in documents served by an Applier.
type Patcher struct {
	applier Applier
}

// New creates a patcher writing through applier.
func New(applier Applier) *Patcher {
	return &Patcher{applier: applier}
}

// EnsureElementPresent adds target.Element to the list at
// target.CollectionPath unless a structurally equal element is already
// there. A missing list is created holding only the element. Elements that
// are present are never modified, and calling this twice with the same
// target is a no-op the second time.
func (p *Patcher) EnsureElementPresent(ctx context.Context, target Target) (Change, error) {
	logger := log.FromContext(ctx).WithValues("resource", target.Resource.String(), "path", target.CollectionPath)

	fields, err := splitPath(target.CollectionPath)
	if err != nil {
		return Unchanged, &PatchFailedError{Resource: target.Resource, Reason: "invalid collection path", Err: err}
	}

	element, err := normalize(target.Element)
	if err != nil {
		return Unchanged, &PatchFailedError{Resource: target.Resource, Reason: "element is not JSON-serialisable", Err: err}
	}

	doc, err := p.applier.ReadDocument(ctx, target.Resource)
	if err != nil {
		return Unchanged, &PatchFailedError{Resource: target.Resource, Reason: "failed to read document", Err: err}
	}
	doc, err = normalizeObject(doc)
	if err != nil {
		return Unchanged, &PatchFailedError{Resource: target.Resource, Reason: "document is not valid JSON", Err: err}
	}

	items, found, err := lookupList(doc, fields)
	if err != nil {
		return Unchanged, &PatchFailedError{Resource: target.Resource, Reason: "collection is not a list", Err: err}
	}

	if found {
		for _, item := range items {
			if equality.Semantic.DeepEqual(item, element) {
				logger.V(1).Info("Element already present")
				return Unchanged, nil
			}
		}
	}

	patch, err := buildPatch(doc, fields, append(items, element))
	if err != nil {
		return Unchanged, &PatchFailedError{Resource: target.Resource, Reason: "failed to compute patch", Err: err}
	}

	logger.V(1).Info("Writing merge patch", "patch", string(patch))
	if err := p.applier.WritePatch(ctx, target.Resource, patch); err != nil {
		return Unchanged, &PatchFailedError{Resource: target.Resource, Reason: "patch rejected", Err: err}
	}

	logger.Info("Element added", "created", !found)
	return Applied, nil
}

func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, errors.New("path is empty")
	}
	fields := strings.Split(path, ".")
	for _, f := range fields {
		if f == "" {
			return nil, fmt.Errorf("path %q has an empty segment", path)
		}
	}
	return fields, nil
}

// lookupList returns the list at fields. A missing field or an explicit
// null is reported as not found; any other non-list value is an error, as
// is a non-object on the way down.
func lookupList(doc map[string]any, fields []string) ([]any, bool, error) {
	var cur any = doc
	for i, f := range fields {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false, fmt.Errorf("%s is %T, not an object", strings.Join(fields[:i], "."), cur)
		}
		next, ok := m[f]
		if !ok || next == nil {
			return nil, false, nil
		}
		cur = next
	}
	items, ok := cur.([]any)
	if !ok {
		return nil, false, fmt.Errorf("%s is %T, not a list", strings.Join(fields, "."), cur)
	}
	return items, true, nil
}

// buildPatch returns a merge patch turning doc into doc with the list at
// fields replaced by items. Merge patches replace lists wholesale, so the
// patch carries every existing element. doc is modified.
func buildPatch(doc map[string]any, fields []string, items []any) ([]byte, error) {
	original, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	cur := doc
	for _, f := range fields[:len(fields)-1] {
		next, ok := cur[f].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[f] = next
		}
		cur = next
	}
	cur[fields[len(fields)-1]] = items

	modifiedJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return jsonpatch.CreateMergePatch(original, modifiedJSON)
}

// normalize round-trips v through JSON so that values built in Go and values
// decoded from the API compare equal. The result shares no memory with v.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeObject(doc map[string]any) (map[string]any, error) {
	if doc == nil {
		return map[string]any{}, nil
	}
	v, err := normalize(doc)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}
