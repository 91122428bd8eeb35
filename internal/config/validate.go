package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Section names a top-level key of demo-config.yaml.
type Section string

const (
	SectionRedHatRegistry  Section = "redhat_registry"
	SectionPrivateRegistry Section = "private_registry"
	SectionOCPCluster      Section = "ocp_cluster"
	SectionJournal         Section = "journal"
)

// Sections required by each command.
var (
	BuildSections  = []Section{SectionRedHatRegistry, SectionPrivateRegistry, SectionOCPCluster}
	DeploySections = []Section{SectionPrivateRegistry, SectionOCPCluster}
)

// MissingKeyError reports a required key absent from the config file.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing required key %q in config file", e.Key)
}

// Require checks that every section is present and complete. All problems
// are reported together.
func (d *Demo) Require(sections ...Section) error {
	var errs []error
	for _, s := range sections {
		errs = append(errs, d.validateSection(s)...)
	}
	return errors.Join(errs...)
}

func (d *Demo) validateSection(s Section) []error {
	missing := func(fields ...string) *MissingKeyError {
		return &MissingKeyError{Key: strings.Join(append([]string{string(s)}, fields...), ".")}
	}

	var errs []error
	switch s {
	case SectionRedHatRegistry:
		if d.RedHatRegistry == nil {
			return []error{missing()}
		}
		errs = append(errs, requireFields(missing, map[string]string{
			"username": d.RedHatRegistry.Username,
			"password": d.RedHatRegistry.Password,
		})...)
	case SectionPrivateRegistry:
		if d.PrivateRegistry == nil {
			return []error{missing()}
		}
		errs = append(errs, requireFields(missing, map[string]string{
			"url":      d.PrivateRegistry.URL,
			"username": d.PrivateRegistry.Username,
			"password": d.PrivateRegistry.Password,
		})...)
	case SectionOCPCluster:
		if d.OCPCluster == nil {
			return []error{missing()}
		}
		errs = append(errs, requireFields(missing, map[string]string{
			"domain":   d.OCPCluster.Domain,
			"username": d.OCPCluster.Username,
			"password": d.OCPCluster.Password,
		})...)
	case SectionJournal:
		if d.Journal == nil {
			return []error{missing()}
		}
		errs = append(errs, requireFields(missing, map[string]string{
			"bucket": d.Journal.Bucket,
		})...)
	default:
		errs = append(errs, fmt.Errorf("unknown config section %q", s))
	}
	return errs
}

// requireFields reports empty fields in a stable order.
func requireFields(missing func(...string) *MissingKeyError, fields map[string]string) []error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	var errs []error
	for _, name := range names {
		if fields[name] == "" {
			errs = append(errs, missing(name))
		}
	}
	return errs
}
