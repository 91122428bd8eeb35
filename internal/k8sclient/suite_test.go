package k8sclient

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// TestAdapters runs the Ginkgo specs for the status provider and document
// applier against the fake dynamic client.
func TestAdapters(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "k8sclient Adapter Suite")
}

var _ = BeforeSuite(func() {
	logf.SetLogger(zap.New(zap.WriteTo(GinkgoWriter), zap.UseDevMode(true)))
})
