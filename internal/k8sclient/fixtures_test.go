package k8sclient

import (
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/restmapper"
)

func application(namespace, name, sync, health string) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "argoproj.io/v1alpha1",
		"kind":       "Application",
		"metadata": map[string]any{
			"name":      name,
			"namespace": namespace,
		},
	}}
	status := map[string]any{}
	if sync != "" {
		status["sync"] = map[string]any{"status": sync}
	}
	if health != "" {
		status["health"] = map[string]any{"status": health}
	}
	if len(status) > 0 {
		obj.Object["status"] = status
	}
	return obj
}

func console(plugins ...any) *unstructured.Unstructured {
	spec := map[string]any{"managementState": "Managed"}
	if plugins != nil {
		spec["plugins"] = plugins
	}
	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "operator.openshift.io/v1",
		"kind":       "Console",
		"metadata":   map[string]any{"name": "cluster"},
		"spec":       spec,
	}}
}

func newFakeDynamicClient(objs ...runtime.Object) *dynamicfake.FakeDynamicClient {
	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(),
		map[schema.GroupVersionResource]string{
			ApplicationGVR: "ApplicationList",
			ConsoleGVR:     "ConsoleList",
		}, objs...)
}

// newTestMapper maps the kinds used in tests: namespaced ConfigMaps and
// Applications, cluster-scoped Namespaces.
func newTestMapper() meta.RESTMapper {
	resources := []*restmapper.APIGroupResources{
		{
			Group: metav1.APIGroup{
				Name: "",
				Versions: []metav1.GroupVersionForDiscovery{
					{GroupVersion: "v1", Version: "v1"},
				},
				PreferredVersion: metav1.GroupVersionForDiscovery{GroupVersion: "v1", Version: "v1"},
			},
			VersionedResources: map[string][]metav1.APIResource{
				"v1": {
					{Name: "configmaps", Namespaced: true, Kind: "ConfigMap"},
					{Name: "namespaces", Namespaced: false, Kind: "Namespace"},
				},
			},
		},
		{
			Group: metav1.APIGroup{
				Name: "argoproj.io",
				Versions: []metav1.GroupVersionForDiscovery{
					{GroupVersion: "argoproj.io/v1alpha1", Version: "v1alpha1"},
				},
				PreferredVersion: metav1.GroupVersionForDiscovery{GroupVersion: "argoproj.io/v1alpha1", Version: "v1alpha1"},
			},
			VersionedResources: map[string][]metav1.APIResource{
				"v1alpha1": {
					{Name: "applications", Namespaced: true, Kind: "Application"},
				},
			},
		},
	}
	return restmapper.NewDiscoveryRESTMapper(resources)
}
