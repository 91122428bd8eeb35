// Package k8sclient talks to the cluster API directly through
// k8s.io/client-go: Server-Side Apply of multi-document YAML manifests,
// Argo CD Application status reads for the convergence waiter, and merge
// patches of shared documents for the patcher.
package k8sclient
