package k8sclient

import (
	"fmt"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ConnectionOptions selects how to reach the cluster. Server and Token take
// precedence; otherwise the kubeconfig loading rules apply (Kubeconfig,
// then $KUBECONFIG, then ~/.kube/config).
type ConnectionOptions struct {
	Kubeconfig string
	Context    string

	Server string
	Token  string

	// InsecureSkipTLSVerify applies to Server/Token connections only.
	InsecureSkipTLSVerify bool
}

// RESTConfig builds a REST config from opts.
func RESTConfig(opts ConnectionOptions) (*rest.Config, error) {
	if opts.Server != "" && opts.Token != "" {
		return &rest.Config{
			Host:        opts.Server,
			BearerToken: opts.Token,
			TLSClientConfig: rest.TLSClientConfig{
				Insecure: opts.InsecureSkipTLSVerify,
			},
		}, nil
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if opts.Kubeconfig != "" {
		rules.ExplicitPath = opts.Kubeconfig
	}
	overrides := &clientcmd.ConfigOverrides{CurrentContext: opts.Context}

	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	return cfg, nil
}

// RESTConfigFromKubeconfig builds a REST config from kubeconfig bytes.
func RESTConfigFromKubeconfig(kubeconfig []byte) (*rest.Config, error) {
	cfg, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create REST config from kubeconfig: %w", err)
	}
	return cfg, nil
}
