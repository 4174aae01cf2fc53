// Package visibility decides, for any viewer/content pair, whether content
// is visible and whether relationship actions such as messaging are allowed.
// It combines two orthogonal exclusions: block edges (symmetric effect) and
// account privacy (requires an accepted follow edge).
package visibility

import (
	"github.com/tarhal-app/backend/internal/models"
)

// AnonymousViewer is the viewer id used for unauthenticated requests
const AnonymousViewer uint = 0

// FollowStore is the read side of the relationship store the resolver needs
type FollowStore interface {
	IsFollowingAccepted(viewerID, ownerID uint) (bool, error)
	AcceptedFollowingIDSet(viewerID uint, ownerIDs []uint) (map[uint]bool, error)
	HasAcceptedEither(a, b uint) (bool, error)
}

// BlockStore is the read side of the block store the resolver needs
type BlockStore interface {
	ExcludedCounterparts(viewerID uint, candidateIDs []uint) (map[uint]struct{}, error)
	IsBlockedEither(a, b uint) (bool, error)
}

// Resolver evaluates visibility and messaging rules against the stores
type Resolver struct {
	follows FollowStore
	blocks  BlockStore
}

// NewResolver creates a new Resolver
func NewResolver(follows FollowStore, blocks BlockStore) *Resolver {
	return &Resolver{follows: follows, blocks: blocks}
}

// CanView reports whether the viewer may see the owner's content. Public
// accounts are visible to everyone including anonymous viewers; private
// accounts require an accepted follow edge from the viewer. Owners always
// see their own content. Blocks are handled separately by ExcludedOwners;
// both exclusions apply when shaping lists.
func (r *Resolver) CanView(viewerID uint, owner *models.User) (bool, error) {
	if owner.Visibility() == models.VisibilityPublic {
		return true, nil
	}
	if viewerID == AnonymousViewer {
		return false, nil
	}
	if viewerID == owner.ID {
		return true, nil
	}
	return r.follows.IsFollowingAccepted(viewerID, owner.ID)
}

// ExcludedOwners returns the candidate owners mutually blocked with the
// viewer. Anonymous viewers have no block relationships.
func (r *Resolver) ExcludedOwners(viewerID uint, ownerIDs []uint) (map[uint]struct{}, error) {
	if viewerID == AnonymousViewer {
		return map[uint]struct{}{}, nil
	}
	return r.blocks.ExcludedCounterparts(viewerID, ownerIDs)
}

// VisibleOwnerSet computes, with one block query and one follow query,
// which of the given owners are visible to the viewer. An owner is visible
// iff not mutually blocked with the viewer AND CanView holds. Any store
// error aborts the whole page: the caller must fail the request rather than
// serve an unfiltered one.
func (r *Resolver) VisibleOwnerSet(viewerID uint, owners map[uint]*models.User) (map[uint]bool, error) {
	visible := make(map[uint]bool, len(owners))

	ownerIDs := make([]uint, 0, len(owners))
	privateIDs := make([]uint, 0, len(owners))
	for id, owner := range owners {
		ownerIDs = append(ownerIDs, id)
		if owner.Visibility() == models.VisibilityPrivate {
			privateIDs = append(privateIDs, id)
		}
	}

	excluded, err := r.ExcludedOwners(viewerID, ownerIDs)
	if err != nil {
		return nil, err
	}

	accepted := map[uint]bool{}
	if viewerID != AnonymousViewer && len(privateIDs) > 0 {
		accepted, err = r.follows.AcceptedFollowingIDSet(viewerID, privateIDs)
		if err != nil {
			return nil, err
		}
	}

	for id, owner := range owners {
		if _, blocked := excluded[id]; blocked {
			visible[id] = false
			continue
		}
		if owner.Visibility() == models.VisibilityPublic {
			visible[id] = true
			continue
		}
		visible[id] = viewerID != AnonymousViewer && (id == viewerID || accepted[id])
	}
	return visible, nil
}

// CanMessage reports whether a direct message may flow between the pair.
// Any block in either direction forbids it; otherwise one accepted follow
// edge in either direction is enough (mutual follow is not required).
// Self-messaging is forbidden.
func (r *Resolver) CanMessage(a, b uint) (bool, error) {
	if a == AnonymousViewer || b == AnonymousViewer || a == b {
		return false, nil
	}
	blocked, err := r.blocks.IsBlockedEither(a, b)
	if err != nil {
		return false, err
	}
	if blocked {
		return false, nil
	}
	return r.follows.HasAcceptedEither(a, b)
}
