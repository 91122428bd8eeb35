package wizard

import (
	"context"
	"fmt"

	"github.com/windguard/edgeprov/internal/config"
)

// Answers holds everything the wizard asks for.
type Answers struct {
	Domain          string
	ClusterUser     string
	ClusterPassword string

	RegistryURL      string
	RegistryUser     string
	RegistryPassword string

	RedHatUser     string
	RedHatPassword string

	Token string

	Journal       bool
	JournalBucket string
	JournalPrefix string
}

// RunWizard runs the interactive configuration wizard.
// The context is used for cancellation support (e.g., Ctrl+C).
func RunWizard(ctx context.Context) (*Answers, error) {
	a := &Answers{RegistryURL: "quay.io"}

	if err := runClusterGroup(ctx, a); err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}
	if err := runRegistryGroup(ctx, a); err != nil {
		return nil, fmt.Errorf("registries: %w", err)
	}
	if err := runJournalGroup(ctx, a); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	return a, nil
}

// Build turns answers into a config.
func (a *Answers) Build() *config.Demo {
	cfg := &config.Demo{
		OCPCluster: &config.Cluster{
			Domain:   a.Domain,
			Username: a.ClusterUser,
			Password: a.ClusterPassword,
		},
		PrivateRegistry: &config.Registry{
			URL:      a.RegistryURL,
			Username: a.RegistryUser,
			Password: a.RegistryPassword,
		},
	}
	if a.RedHatUser != "" {
		cfg.RedHatRegistry = &config.Registry{Username: a.RedHatUser, Password: a.RedHatPassword}
	}
	if a.Token != "" {
		cfg.Server = cfg.OCPCluster.APIURL()
		cfg.Token = a.Token
	}
	if a.Journal {
		cfg.Journal = &config.Journal{Bucket: a.JournalBucket, Prefix: a.JournalPrefix}
	}
	return cfg
}
