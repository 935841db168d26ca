package edit

import (
	"github.com/ivlev/nle/internal/project"
)

// AddResource registers metadata for an externally stored media asset.
// An empty ID gets a fresh one. Re-registering an id keeps clips valid only if
// the kind is unchanged, so a kind change fails with resource_kind_mismatch.
func AddResource(p project.Project, r project.Resource) (project.Project, error) {
	if r.Kind != project.KindVideo && r.Kind != project.KindAudio {
		return p, project.NewError(project.CodeResourceKindMismatch, "resources must be video or audio", map[string]any{
			"resource_id":   r.ID,
			"resource_kind": r.Kind,
		})
	}
	if r.ID == "" {
		r.ID = newID()
	}
	if prev, ok := p.Resources[r.ID]; ok && prev.Kind != r.Kind {
		return p, project.ResourceKindMismatch(r.ID, prev.Kind, r.Kind)
	}

	resources := make(map[string]project.Resource, len(p.Resources)+1)
	for id, res := range p.Resources {
		resources[id] = res
	}
	resources[r.ID] = r

	p.Resources = resources
	p.UpdatedAt = now()
	return p, nil
}
