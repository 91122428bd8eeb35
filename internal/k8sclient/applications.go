package k8sclient

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"

	"github.com/windguard/edgeprov/internal/convergence"
	"github.com/windguard/edgeprov/internal/resource"
)

// ApplicationGVR is the Argo CD Application resource.
var ApplicationGVR = schema.GroupVersionResource{Group: "argoproj.io", Version: "v1alpha1", Resource: "applications"}

// ApplicationStatus reads Argo CD Application sync and health status.
type ApplicationStatus struct {
	dynamicClient dynamic.Interface
}

// NewApplicationStatus creates a status provider backed by dynamicClient.
func NewApplicationStatus(dynamicClient dynamic.Interface) *ApplicationStatus {
	return &ApplicationStatus{dynamicClient: dynamicClient}
}

// Status implements convergence.StatusProvider. A missing Application
// returns an error wrapping convergence.ErrNotFound. Missing status fields
// read as Unknown.
func (a *ApplicationStatus) Status(ctx context.Context, ref resource.Ref) (convergence.Snapshot, error) {
	obj, err := a.dynamicClient.Resource(ApplicationGVR).Namespace(ref.Namespace).Get(ctx, ref.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return convergence.Snapshot{}, fmt.Errorf("application %s: %w", ref, convergence.ErrNotFound)
	}
	if err != nil {
		return convergence.Snapshot{}, fmt.Errorf("failed to get application %s: %w", ref, err)
	}

	sync, _, _ := unstructured.NestedString(obj.Object, "status", "sync", "status")
	health, _, _ := unstructured.NestedString(obj.Object, "status", "health", "status")

	return convergence.Snapshot{
		Sync:   convergence.ParseSyncState(sync),
		Health: convergence.ParseHealthState(health),
	}, nil
}
