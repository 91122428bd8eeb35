package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRef_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "openshift-gitops/frontend", Ref{Name: "frontend", Namespace: "openshift-gitops"}.String())
	assert.Equal(t, "cluster", Ref{Name: "cluster"}.String())
}

func TestRefs(t *testing.T) {
	t.Parallel()

	refs := Refs("gitops", "b", "a")
	assert.Equal(t, []Ref{
		{Name: "b", Namespace: "gitops"},
		{Name: "a", Namespace: "gitops"},
	}, refs)
	assert.Empty(t, Refs("gitops"))
}
