package k8sclient

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	clienttesting "k8s.io/client-go/testing"

	"github.com/windguard/edgeprov/internal/convergence"
	"github.com/windguard/edgeprov/internal/patcher"
	"github.com/windguard/edgeprov/internal/resource"
)

var _ = Describe("ApplicationStatus", func() {
	var (
		ctx context.Context
		ref resource.Ref
	)

	BeforeEach(func() {
		ctx = context.Background()
		ref = resource.Ref{Name: "frontend", Namespace: "openshift-gitops"}
	})

	It("reads sync and health status", func() {
		provider := NewApplicationStatus(newFakeDynamicClient(
			application("openshift-gitops", "frontend", "Synced", "Progressing")))

		snap, err := provider.Status(ctx, ref)
		Expect(err).NotTo(HaveOccurred())
		Expect(snap).To(Equal(convergence.Snapshot{Sync: convergence.Synced, Health: convergence.Progressing}))
		Expect(snap.Ready()).To(BeFalse())
	})

	It("reports Unknown for an application without status", func() {
		provider := NewApplicationStatus(newFakeDynamicClient(
			application("openshift-gitops", "frontend", "", "")))

		snap, err := provider.Status(ctx, ref)
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Sync).To(Equal(convergence.SyncUnknown))
		Expect(snap.Health).To(Equal(convergence.HealthUnknown))
	})

	It("returns ErrNotFound for a missing application", func() {
		provider := NewApplicationStatus(newFakeDynamicClient(
			application("other-namespace", "frontend", "Synced", "Healthy")))

		_, err := provider.Status(ctx, ref)
		Expect(err).To(MatchError(convergence.ErrNotFound))
		Expect(err.Error()).To(ContainSubstring("openshift-gitops/frontend"))
	})

	It("does not treat API failures as not found", func() {
		client := newFakeDynamicClient()
		client.PrependReactor("get", "applications", func(clienttesting.Action) (bool, runtime.Object, error) {
			return true, nil, errors.New("etcdserver: request timed out")
		})

		_, err := NewApplicationStatus(client).Status(ctx, ref)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, convergence.ErrNotFound)).To(BeFalse())
	})

	It("reads fresh status on every call", func() {
		client := newFakeDynamicClient(application("openshift-gitops", "frontend", "OutOfSync", "Progressing"))
		provider := NewApplicationStatus(client)

		snap, err := provider.Status(ctx, ref)
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Ready()).To(BeFalse())

		_, err = client.Resource(ApplicationGVR).Namespace("openshift-gitops").Update(ctx,
			application("openshift-gitops", "frontend", "Synced", "Healthy"), metav1.UpdateOptions{})
		Expect(err).NotTo(HaveOccurred())

		snap, err = provider.Status(ctx, ref)
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Ready()).To(BeTrue())
	})

	It("drives the waiter to Ready and NotFound outcomes", func() {
		provider := NewApplicationStatus(newFakeDynamicClient(
			application("openshift-gitops", "frontend", "Synced", "Healthy")))
		waiter := convergence.NewWaiter(provider, convergence.Options{
			Interval: 10 * time.Millisecond,
			Timeout:  time.Second,
		})

		report, err := waiter.WaitForAll(ctx, resource.Refs("openshift-gitops", "frontend", "backend"))
		Expect(err).To(MatchError(convergence.ErrNotFound))
		Expect(report.Outcomes[0].State).To(Equal(convergence.Ready))
		Expect(report.Outcomes[1].State).To(Equal(convergence.NotFound))
	})
})

var _ = Describe("Documents", func() {
	var (
		ctx    context.Context
		client *dynamicfake.FakeDynamicClient
		docs   *Documents
		ref    resource.Ref
	)

	pluginsOf := func() []any {
		obj, err := client.Resource(ConsoleGVR).Get(ctx, "cluster", metav1.GetOptions{})
		Expect(err).NotTo(HaveOccurred())
		plugins, _, err := unstructured.NestedSlice(obj.Object, "spec", "plugins")
		Expect(err).NotTo(HaveOccurred())
		return plugins
	}

	BeforeEach(func() {
		ctx = context.Background()
		ref = resource.Ref{Name: "cluster"}
	})

	Context("when the console has other plugins", func() {
		BeforeEach(func() {
			client = newFakeDynamicClient(console("monitoring-plugin"))
			docs = NewDocuments(client, ConsoleGVR)
		})

		It("reads the cluster-scoped document", func() {
			doc, err := docs.ReadDocument(ctx, ref)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc).To(HaveKeyWithValue("kind", "Console"))
		})

		It("adds the plugin once and keeps existing entries", func() {
			p := patcher.New(docs)
			target := patcher.Target{Resource: ref, CollectionPath: "spec.plugins", Element: "flightctl-plugin"}

			change, err := p.EnsureElementPresent(ctx, target)
			Expect(err).NotTo(HaveOccurred())
			Expect(change).To(Equal(patcher.Applied))

			change, err = p.EnsureElementPresent(ctx, target)
			Expect(err).NotTo(HaveOccurred())
			Expect(change).To(Equal(patcher.Unchanged))

			Expect(pluginsOf()).To(Equal([]any{"monitoring-plugin", "flightctl-plugin"}))
		})

		It("sends merge patches", func() {
			var patchType string
			client.PrependReactor("patch", "consoles", func(action clienttesting.Action) (bool, runtime.Object, error) {
				patchType = string(action.(clienttesting.PatchAction).GetPatchType())
				return false, nil, nil
			})

			Expect(docs.WritePatch(ctx, ref, []byte(`{"spec":{"plugins":["a"]}}`))).To(Succeed())
			Expect(patchType).To(Equal("application/merge-patch+json"))
			Expect(pluginsOf()).To(Equal([]any{"a"}))
		})
	})

	Context("when the console has no plugins", func() {
		BeforeEach(func() {
			client = newFakeDynamicClient(console())
			docs = NewDocuments(client, ConsoleGVR)
		})

		It("creates the list with the plugin", func() {
			change, err := patcher.New(docs).EnsureElementPresent(ctx,
				patcher.Target{Resource: ref, CollectionPath: "spec.plugins", Element: "flightctl-plugin"})
			Expect(err).NotTo(HaveOccurred())
			Expect(change).To(Equal(patcher.Applied))
			Expect(pluginsOf()).To(Equal([]any{"flightctl-plugin"}))
		})
	})

	Context("when the console does not exist", func() {
		BeforeEach(func() {
			client = newFakeDynamicClient()
			docs = NewDocuments(client, ConsoleGVR)
		})

		It("fails with PatchFailedError", func() {
			_, err := patcher.New(docs).EnsureElementPresent(ctx,
				patcher.Target{Resource: ref, CollectionPath: "spec.plugins", Element: "flightctl-plugin"})
			Expect(patcher.IsPatchFailed(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("consoles cluster not found"))
		})
	})
})
