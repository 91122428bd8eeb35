package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/windguard/edgeprov/internal/config"
	"github.com/windguard/edgeprov/internal/occli"
	"github.com/windguard/edgeprov/internal/pipeline"
)

// ManifestDir holds the fleet and virtualization manifests.
const ManifestDir = "demo-environment-setup"

// Manifests applied by deploy-fleet.
const (
	repositoryManifest = "rhem-windguard-repo.yml"
	fleetManifest      = "rhem-windguard-fleet.yml"
	namespaceManifest  = "ocpvirt-windguard-namespace.yml"
	serviceManifest    = "ocpvirt-windguard-vm-service.yml"
	routesManifest     = "ocpvirt-windguard-vm-routes.yml"
	vmManifest         = "ocpvirt-windguard-vm-ocpvirt.yml"
)

// Placeholders replaced in the fleet and VM manifests.
const (
	bootcPlaceholder = "BOOTC_IMAGE"
	qcowPlaceholder  = "QCOW_IMAGE"
)

func manifestPath(name string) string {
	return filepath.Join(ManifestDir, name)
}

// DeployFleet configures the Flight Control repository and fleet and
// deploys the edge VMs to OpenShift Virtualization.
func DeployFleet(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.configPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Require(config.DeploySections...); err != nil {
		return err
	}
	if err := verifyManifests(); err != nil {
		return err
	}

	s, err := startSession("deploy-fleet", opts, cfg)
	if err != nil {
		return err
	}

	printBanner("WindGuard Fleet Deployment", [][2]string{
		{"OCP Domain", cfg.OCPCluster.Domain},
		{"Bootc Image", cfg.PrivateRegistry.BootcImage()},
		{"QCOW2 Image", cfg.PrivateRegistry.QCOW2Image()},
	})

	t := newToolbox(newExecutor(opts.Verbose), cfg)
	if err := runPipeline(ctx, s, deploySteps(t, cfg)); err != nil {
		return err
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Next steps:")
	fmt.Fprintln(stdout, "  1. Check VM status: oc get vms -n windguard-demo")
	fmt.Fprintln(stdout, "  2. List enrolled devices: flightctl get devices")
	fmt.Fprintln(stdout, "  3. Open Flight Control from the OpenShift web console")
	return nil
}

// verifyManifests reports every missing manifest at once.
func verifyManifests() error {
	var missing []string
	for _, name := range []string{repositoryManifest, fleetManifest, namespaceManifest, serviceManifest, routesManifest, vmManifest} {
		if !fileExists(manifestPath(name)) {
			missing = append(missing, manifestPath(name))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required manifest files: %s", strings.Join(missing, ", "))
	}
	return nil
}

func deploySteps(t toolbox, cfg *config.Demo) []pipeline.Step {
	var host string
	return []pipeline.Step{
		t.openshiftLogin(cfg.OCPCluster),
		t.flightctlRoute(&host),
		t.flightctlLogin(cfg.OCPCluster, &host),

		t.step("apply-repository", t.command("", flightctlBinary, "apply", "-f", manifestPath(repositoryManifest))),
		t.substituteStep("apply-fleet", manifestPath(fleetManifest), bootcPlaceholder, cfg.PrivateRegistry.BootcImage(),
			t.command("", flightctlBinary, "apply", "-f", "-")),

		t.step("apply-virtualization-resources", t.command("", occli.Binary, "apply",
			"-f", manifestPath(namespaceManifest),
			"-f", manifestPath(serviceManifest),
			"-f", manifestPath(routesManifest))),
		t.substituteStep("deploy-vm", manifestPath(vmManifest), qcowPlaceholder, cfg.PrivateRegistry.QCOW2Image(),
			t.command("", occli.Binary, "apply", "-f", "-")),
	}
}
