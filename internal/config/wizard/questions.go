package wizard

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/charmbracelet/huh"
)

// domainRegex accepts dotted DNS names such as cluster-abc.example.com.
var domainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)

// bucketRegex follows the S3 bucket naming rules.
var bucketRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func runClusterGroup(ctx context.Context, a *Answers) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cluster Domain").
				Description("Base domain; the API is reached at https://api.<domain>:6443").
				Placeholder("cluster-abc.example.com").
				Value(&a.Domain).
				Validate(validateDomain),
			huh.NewInput().
				Title("Cluster Username").
				Value(&a.ClusterUser).
				Validate(required("username")),
			huh.NewInput().
				Title("Cluster Password").
				EchoMode(huh.EchoModePassword).
				Value(&a.ClusterPassword).
				Validate(required("password")),
			huh.NewInput().
				Title("API Token (Optional)").
				Description("Used by 'edgeprov wait' to log in. Leave empty to use your current session.").
				EchoMode(huh.EchoModePassword).
				Value(&a.Token),
		).Title("OpenShift Cluster"),
	).RunWithContext(ctx)
}

func runRegistryGroup(ctx context.Context, a *Answers) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Private Registry").
				Description("Registry receiving the bootc and QCOW2 images").
				Value(&a.RegistryURL).
				Validate(required("registry")),
			huh.NewInput().
				Title("Registry Username").
				Value(&a.RegistryUser).
				Validate(required("username")),
			huh.NewInput().
				Title("Registry Password").
				EchoMode(huh.EchoModePassword).
				Value(&a.RegistryPassword).
				Validate(required("password")),
		).Title("Private Registry"),
		huh.NewGroup(
			huh.NewInput().
				Title("registry.redhat.io Username (Optional)").
				Description("Needed only by 'edgeprov build-image'").
				Value(&a.RedHatUser),
			huh.NewInput().
				Title("registry.redhat.io Password").
				EchoMode(huh.EchoModePassword).
				Value(&a.RedHatPassword),
		).Title("Red Hat Registry"),
	).RunWithContext(ctx)
}

func runJournalGroup(ctx context.Context, a *Answers) error {
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Upload Run Journals?").
				Description("Store a copy of every run journal in an S3-compatible bucket").
				Value(&a.Journal),
		).Title("Run Journal"),
	).RunWithContext(ctx)
	if err != nil || !a.Journal {
		return err
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Bucket").
				Value(&a.JournalBucket).
				Validate(validateBucket),
			huh.NewInput().
				Title("Key Prefix (Optional)").
				Placeholder("demo/").
				Value(&a.JournalPrefix),
		).Title("Journal Bucket"),
	).RunWithContext(ctx)
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func validateDomain(s string) error {
	if !domainRegex.MatchString(s) {
		return errors.New("must be a DNS name like cluster-abc.example.com")
	}
	return nil
}

func validateBucket(s string) error {
	if !bucketRegex.MatchString(s) {
		return errors.New("must be 3-63 lowercase letters, digits, dots or hyphens")
	}
	return nil
}
