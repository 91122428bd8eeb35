// Package resource identifies external objects that the convergence waiter
// polls and the patcher mutates.
package resource

import "fmt"

// Ref identifies a named external object. An empty Namespace means the
// object is cluster-scoped.
type Ref struct {
	Name      string
	Namespace string
}

// String returns "namespace/name", or just "name" for cluster-scoped refs.
func (r Ref) String() string {
	if r.Namespace == "" {
		return r.Name
	}
	return fmt.Sprintf("%s/%s", r.Namespace, r.Name)
}

// Refs builds refs for names that share a namespace, preserving order.
func Refs(namespace string, names ...string) []Ref {
	refs := make([]Ref, 0, len(names))
	for _, name := range names {
		refs = append(refs, Ref{Name: name, Namespace: namespace})
	}
	return refs
}
