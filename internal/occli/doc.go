// Package occli implements the status provider and document applier on top
// of the oc command line client, for environments where only a logged-in oc
// session is available.
package occli
