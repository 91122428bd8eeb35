package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFilename is the default configuration filename.
const DefaultConfigFilename = "demo-config.yaml"

// Image names pushed to the private registry.
const (
	ImageBase  = "windguard-microshift"
	ImageTag   = "demo"
	QCOW2Tag   = "demo-qcow2"
	APIPort    = 6443
	ConsoleRef = "cluster"
)

// Demo is the content of demo-config.yaml.
type Demo struct {
	// Server and Token log the wait command into the cluster.
	Server string `yaml:"server,omitempty"`
	Token  string `yaml:"token,omitempty"`

	RedHatRegistry  *Registry `yaml:"redhat_registry,omitempty"`
	PrivateRegistry *Registry `yaml:"private_registry,omitempty"`
	OCPCluster      *Cluster  `yaml:"ocp_cluster,omitempty"`
	Journal         *Journal  `yaml:"journal,omitempty"`
}

// Registry holds container registry credentials.
type Registry struct {
	URL      string `yaml:"url,omitempty"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Cluster holds OpenShift cluster credentials.
type Cluster struct {
	Domain   string `yaml:"domain"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Journal configures upload of run journals to an S3-compatible bucket.
type Journal struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix,omitempty"`
	Region          string `yaml:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	UsePathStyle    bool   `yaml:"use_path_style,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
}

// APIURL returns the cluster API endpoint.
func (c *Cluster) APIURL() string {
	return fmt.Sprintf("https://api.%s:%d", c.Domain, APIPort)
}

// Image returns {url}/{username}/windguard-microshift:{tag}.
func (r *Registry) Image(tag string) string {
	return fmt.Sprintf("%s/%s/%s:%s", r.URL, r.Username, ImageBase, tag)
}

// BootcImage is the bootable container image reference.
func (r *Registry) BootcImage() string {
	return r.Image(ImageTag)
}

// QCOW2Image is the reference of the container wrapping the QCOW2 disk.
func (r *Registry) QCOW2Image() string {
	return r.Image(QCOW2Tag)
}

// Load reads and parses path.
func Load(path string) (*Demo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// LoadOptional is Load, except that a missing file returns (nil, nil).
func LoadOptional(path string) (*Demo, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return cfg, err
}

// Parse parses YAML data.
func Parse(data []byte) (*Demo, error) {
	var cfg Demo
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &cfg, nil
}

// HasLogin reports whether both server and token are set.
func (d *Demo) HasLogin() bool {
	return d != nil && d.Server != "" && d.Token != ""
}

// Secrets returns every credential in the file, for masking in logs.
func (d *Demo) Secrets() []string {
	var out []string
	add := func(s string) {
		if s != "" {
			out = append(out, s)
		}
	}
	add(d.Token)
	if d.RedHatRegistry != nil {
		add(d.RedHatRegistry.Password)
	}
	if d.PrivateRegistry != nil {
		add(d.PrivateRegistry.Password)
	}
	if d.OCPCluster != nil {
		add(d.OCPCluster.Password)
	}
	if d.Journal != nil {
		add(d.Journal.SecretAccessKey)
	}
	return out
}
