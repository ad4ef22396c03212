package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storycanvas/application/ports"
	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/core/entities"
)

// reconcile pushes a full content snapshot. Entities go parent-first
// (acts, characters, plot points, scenes) and each one is updated, falling back
// to a create when the update fails. Ids the backend assigns on create are
// recorded in idMap and substituted into the foreign keys of later children.
// Remote entities missing locally are deleted children-first. Failures of single
// entities are logged and skipped; failures of the project-level calls abort.
func (p *Pipeline) reconcile(ctx context.Context, local *aggregates.Project) (flushResult, error) {
	projectID := local.ID
	idMap := make(map[string]string)
	mapped := func(id string) string {
		if to, ok := idMap[id]; ok {
			return to
		}
		return id
	}

	if err := p.backend.UpdateProject(ctx, projectID, ports.MetaOf(local)); err != nil {
		return flushResult{}, fmt.Errorf("update project metadata: %w", err)
	}
	remote, err := p.backend.GetProject(ctx, projectID)
	if err != nil {
		return flushResult{}, fmt.Errorf("fetch remote project: %w", err)
	}

	for _, act := range local.Acts {
		if err := p.backend.UpdateAct(ctx, projectID, act); err == nil {
			continue
		}
		created, err := p.backend.CreateAct(ctx, projectID, act)
		if err != nil {
			p.skip("act", act.ID, err)
			continue
		}
		p.record(idMap, act.ID, created.ID)
	}

	for _, c := range local.Characters {
		if err := p.backend.UpdateCharacter(ctx, projectID, c); err == nil {
			continue
		}
		created, err := p.backend.CreateCharacter(ctx, projectID, c)
		if err != nil {
			p.skip("character", c.ID, err)
			continue
		}
		p.record(idMap, c.ID, created.ID)
	}

	synced := make(map[string]bool, len(local.PlotPoints))
	for _, pp := range local.PlotPoints {
		out := pp
		out.ActID = mapped(pp.ActID)
		out.Scenes = nil
		if err := p.backend.UpdatePlotPoint(ctx, projectID, out.ActID, out); err == nil {
			synced[pp.ID] = true
			continue
		}
		created, err := p.backend.CreatePlotPoint(ctx, projectID, out.ActID, out)
		if err != nil {
			p.skip("plotPoint", pp.ID, err)
			continue
		}
		synced[pp.ID] = true
		p.record(idMap, pp.ID, created.ID)
	}

	for _, pp := range local.PlotPoints {
		if !synced[pp.ID] {
			// Parent unknown to the backend; its scenes wait for the next pass.
			continue
		}
		actID, ppID := mapped(pp.ActID), mapped(pp.ID)
		for _, s := range pp.Scenes {
			out := s.Clone()
			for i, cid := range out.CharacterIDs {
				out.CharacterIDs[i] = mapped(cid)
			}
			if err := p.backend.UpdateScene(ctx, projectID, actID, ppID, out); err == nil {
				continue
			}
			created, err := p.backend.CreateScene(ctx, projectID, actID, ppID, out)
			if err != nil {
				p.skip("scene", s.ID, err)
				continue
			}
			p.record(idMap, s.ID, created.ID)
		}
	}

	view := ports.ViewOf(local)
	view.CurrentActID = mapped(view.CurrentActID)
	view.FocusedElementID = mapped(view.FocusedElementID)
	if err := p.backend.UpdateProjectView(ctx, projectID, view); err != nil {
		p.skip("view", projectID, err)
	}

	p.deleteRemoteOnly(ctx, local, remote, mapped)

	canonical, err := p.backend.GetProject(ctx, projectID)
	if err != nil {
		return flushResult{}, fmt.Errorf("fetch canonical project: %w", err)
	}
	return flushResult{saved: canonical.Clone(), canonical: canonical, idMap: idMap}, nil
}

// deleteRemoteOnly removes remote entities with no local counterpart: scenes of
// surviving plot points first, then plot points, characters and finally acts.
func (p *Pipeline) deleteRemoteOnly(ctx context.Context, local, remote *aggregates.Project, mapped func(string) string) {
	localIDs := make(map[string]bool)
	for _, a := range local.Acts {
		localIDs[mapped(a.ID)] = true
	}
	for _, c := range local.Characters {
		localIDs[mapped(c.ID)] = true
	}
	for _, pp := range local.PlotPoints {
		localIDs[mapped(pp.ID)] = true
		for _, s := range pp.Scenes {
			localIDs[mapped(s.ID)] = true
		}
	}

	for _, pp := range remote.PlotPoints {
		if !localIDs[pp.ID] {
			continue
		}
		for _, s := range pp.Scenes {
			if localIDs[s.ID] {
				continue
			}
			if err := p.backend.DeleteScene(ctx, remote.ID, p.currentActOf(local, pp, mapped), pp.ID, s.ID); err != nil {
				p.skip("scene", s.ID, err)
			}
		}
	}

	for _, pp := range remote.PlotPoints {
		if localIDs[pp.ID] {
			continue
		}
		if err := p.backend.DeletePlotPoint(ctx, remote.ID, pp.ActID, pp.ID); err != nil {
			p.skip("plotPoint", pp.ID, err)
		}
	}

	for _, c := range remote.Characters {
		if localIDs[c.ID] {
			continue
		}
		if err := p.backend.DeleteCharacter(ctx, remote.ID, c.ID); err != nil {
			p.skip("character", c.ID, err)
		}
	}

	for _, a := range remote.Acts {
		if localIDs[a.ID] {
			continue
		}
		if err := p.backend.DeleteAct(ctx, remote.ID, a.ID); err != nil {
			p.skip("act", a.ID, err)
		}
	}
}

// currentActOf returns the act a surviving remote plot point belongs to after this
// pass: the local act when the plot point moved, else the remote one.
func (p *Pipeline) currentActOf(local *aggregates.Project, remotePP entities.PlotPoint, mapped func(string) string) string {
	for _, pp := range local.PlotPoints {
		if mapped(pp.ID) == remotePP.ID {
			return mapped(pp.ActID)
		}
	}
	return remotePP.ActID
}

func (p *Pipeline) record(idMap map[string]string, localID, remoteID string) {
	if remoteID != "" && remoteID != localID {
		idMap[localID] = remoteID
	}
}

func (p *Pipeline) skip(entity, id string, err error) {
	p.metrics.RecordEntityFailure(entity)
	p.logger.Warn("sync skipped entity",
		zap.String("entity", entity),
		zap.String("entity_id", id),
		zap.Error(err))
}
