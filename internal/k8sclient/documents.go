package k8sclient

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"

	"github.com/windguard/edgeprov/internal/resource"
)

// ConsoleGVR is the OpenShift console operator configuration. Its single
// cluster-scoped instance is named "cluster".
var ConsoleGVR = schema.GroupVersionResource{Group: "operator.openshift.io", Version: "v1", Resource: "consoles"}

// Documents reads and merge-patches objects of one resource type.
type Documents struct {
	dynamicClient dynamic.Interface
	gvr           schema.GroupVersionResource
}

// NewDocuments creates an applier for objects of gvr.
func NewDocuments(dynamicClient dynamic.Interface, gvr schema.GroupVersionResource) *Documents {
	return &Documents{dynamicClient: dynamicClient, gvr: gvr}
}

func (d *Documents) resource(ref resource.Ref) dynamic.ResourceInterface {
	if ref.Namespace == "" {
		return d.dynamicClient.Resource(d.gvr)
	}
	return d.dynamicClient.Resource(d.gvr).Namespace(ref.Namespace)
}

// ReadDocument implements patcher.Applier.
func (d *Documents) ReadDocument(ctx context.Context, ref resource.Ref) (map[string]any, error) {
	obj, err := d.resource(ref).Get(ctx, ref.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, fmt.Errorf("%s %s not found", d.gvr.Resource, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", d.gvr.Resource, ref, err)
	}
	return obj.Object, nil
}

// WritePatch implements patcher.Applier with a JSON merge patch.
func (d *Documents) WritePatch(ctx context.Context, ref resource.Ref, patch []byte) error {
	_, err := d.resource(ref).Patch(ctx, ref.Name, types.MergePatchType, patch, metav1.PatchOptions{FieldManager: FieldManager})
	if err != nil {
		return fmt.Errorf("failed to patch %s %s: %w", d.gvr.Resource, ref, err)
	}
	return nil
}
