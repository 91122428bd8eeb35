package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/windguard/edgeprov/internal/config"
	"github.com/windguard/edgeprov/internal/occli"
	"github.com/windguard/edgeprov/internal/pipeline"
)

// Build host setup and image build inputs.
var (
	buildRepositories = []string{
		"rhacm-2.15-for-rhel-9-x86_64-rpms",
		"rhocp-4.20-for-rhel-9-x86_64-rpms",
	}
	buildPackages = []string{"flightctl", "container-tools", "openshift-clients"}
)

const (
	// BuildDir holds the Containerfiles and receives the build artifacts.
	BuildDir = "demo-environment-setup/microshift-im-build"

	bootcImageBuilder = "registry.redhat.io/rhel9/bootc-image-builder:latest"
	redHatRegistry    = "registry.redhat.io"
	authFile          = "--authfile=auth.json"
)

// BuildImage builds the bootc image and the QCOW2 disk image and pushes both
// to the private registry.
func BuildImage(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.configPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Require(config.BuildSections...); err != nil {
		return err
	}
	if !fileExists(BuildDir) {
		return fmt.Errorf("build directory %q not found", BuildDir)
	}

	s, err := startSession("build-image", opts, cfg)
	if err != nil {
		return err
	}

	printBanner("WindGuard Edge Image Build", [][2]string{
		{"Build Directory", BuildDir},
		{"OCP Domain", cfg.OCPCluster.Domain},
		{"Private Registry", cfg.PrivateRegistry.URL + "/" + cfg.PrivateRegistry.Username},
		{"Bootc Image", cfg.PrivateRegistry.BootcImage()},
		{"QCOW2 Image", cfg.PrivateRegistry.QCOW2Image()},
	})

	t := newToolbox(newExecutor(opts.Verbose), cfg)
	if err := runPipeline(ctx, s, buildSteps(t, cfg)); err != nil {
		return err
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Bootc Image: %s\n", cfg.PrivateRegistry.BootcImage())
	fmt.Fprintf(stdout, "QCOW2 Image: %s\n", cfg.PrivateRegistry.QCOW2Image())
	fmt.Fprintln(stdout, "\nRun 'edgeprov deploy-fleet' to deploy the edge devices")
	return nil
}

func buildSteps(t toolbox, cfg *config.Demo) []pipeline.Step {
	private := cfg.PrivateRegistry
	redhat := cfg.RedHatRegistry
	bootc := private.BootcImage()
	qcow := private.QCOW2Image()

	repoArgs := []string{"repos"}
	for _, repo := range buildRepositories {
		repoArgs = append(repoArgs, "--enable", repo)
	}
	outputDir, _ := filepath.Abs(filepath.Join(BuildDir, "output"))

	var host string
	return []pipeline.Step{
		t.step("enable-repositories", t.command("", "subscription-manager", repoArgs...)),
		t.step("install-packages", t.command("", "dnf", append([]string{"install", "-y"}, buildPackages...)...)),

		t.step("login-private-registry", t.command(BuildDir, podmanBinary,
			"login", private.URL, "--username", private.Username, "--password", private.Password, authFile)),
		t.step("login-redhat-registry", t.command(BuildDir, podmanBinary,
			"login", redHatRegistry, "--username", redhat.Username, "--password", redhat.Password, authFile)),

		t.openshiftLogin(cfg.OCPCluster),
		t.redirectStep("extract-pull-secret", filepath.Join(BuildDir, "pull-secret"), t.command(BuildDir, occli.Binary,
			"get", "secret/pull-secret", "-n", "openshift-config",
			`--template={{index .data ".dockerconfigjson" | base64decode}}`)),

		t.flightctlRoute(&host),
		t.flightctlLogin(cfg.OCPCluster, &host),
		pipeline.Optional(t.step("flightctl-version", t.command("", flightctlBinary, "version"))),
		t.redirectStep("request-enrollment-certificate", filepath.Join(BuildDir, "config.yaml"), t.command(BuildDir, flightctlBinary,
			"certificate", "request", "--signer=enrollment", "--expiration=365d", "--output=embedded")),

		t.step("build-bootc-image", t.command(BuildDir, podmanBinary, "build", "--rm", "--no-cache", "-t", bootc, ".")),
		t.step("push-bootc-image", t.command(BuildDir, podmanBinary, "push", bootc, authFile)),

		{
			Name: "create-output-directory",
			Run: func(context.Context) error {
				if err := os.MkdirAll(outputDir, 0o755); err != nil {
					return fmt.Errorf("failed to create %s: %w", outputDir, err)
				}
				return nil
			},
		},
		t.step("build-qcow2", t.command(BuildDir, podmanBinary,
			"run", "--rm", "--privileged", "--pull=newer",
			"--security-opt", "label=type:unconfined_t",
			"-v", outputDir+":/output",
			"-v", "./config.toml:/config.toml",
			"-v", "/var/lib/containers/storage:/var/lib/containers/storage",
			bootcImageBuilder, "--type", "qcow2", bootc)),

		t.step("build-qcow2-image", t.command(BuildDir, podmanBinary,
			"build", "--rm", "--no-cache", "-t", qcow, "-f", "Containerfile.ocpvirt", ".")),
		t.step("push-qcow2-image", t.command(BuildDir, podmanBinary, "push", qcow, authFile)),
	}
}
