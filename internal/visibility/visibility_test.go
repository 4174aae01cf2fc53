package visibility

import (
	"errors"
	"testing"

	"github.com/tarhal-app/backend/internal/models"
)

type fakeFollowStore struct {
	accepted map[[2]uint]bool // (follower, following)
	err      error
}

func (f *fakeFollowStore) IsFollowingAccepted(viewerID, ownerID uint) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.accepted[[2]uint{viewerID, ownerID}], nil
}

func (f *fakeFollowStore) AcceptedFollowingIDSet(viewerID uint, ownerIDs []uint) (map[uint]bool, error) {
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[uint]bool)
	for _, id := range ownerIDs {
		if f.accepted[[2]uint{viewerID, id}] {
			result[id] = true
		}
	}
	return result, nil
}

func (f *fakeFollowStore) HasAcceptedEither(a, b uint) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.accepted[[2]uint{a, b}] || f.accepted[[2]uint{b, a}], nil
}

type fakeBlockStore struct {
	blocks map[[2]uint]bool // (blocker, blocked)
	err    error
}

func (f *fakeBlockStore) ExcludedCounterparts(viewerID uint, candidateIDs []uint) (map[uint]struct{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	excluded := make(map[uint]struct{})
	for _, id := range candidateIDs {
		if f.blocks[[2]uint{viewerID, id}] || f.blocks[[2]uint{id, viewerID}] {
			excluded[id] = struct{}{}
		}
	}
	return excluded, nil
}

func (f *fakeBlockStore) IsBlockedEither(a, b uint) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.blocks[[2]uint{a, b}] || f.blocks[[2]uint{b, a}], nil
}

func publicUser(id uint) *models.User  { return &models.User{ID: id} }
func privateUser(id uint) *models.User { return &models.User{ID: id, IsPrivate: true} }

// legacyPrivateUser has is_private unset but the legacy privacy column set;
// it must be treated as private everywhere.
func legacyPrivateUser(id uint) *models.User {
	return &models.User{ID: id, Privacy: "private"}
}

func newResolver(follows *fakeFollowStore, blocks *fakeBlockStore) *Resolver {
	if follows == nil {
		follows = &fakeFollowStore{accepted: map[[2]uint]bool{}}
	}
	if blocks == nil {
		blocks = &fakeBlockStore{blocks: map[[2]uint]bool{}}
	}
	return NewResolver(follows, blocks)
}

func TestCanView(t *testing.T) {
	tests := []struct {
		name     string
		viewerID uint
		owner    *models.User
		accepted map[[2]uint]bool
		want     bool
	}{
		{"public owner, anonymous viewer", AnonymousViewer, publicUser(1), nil, true},
		{"public owner, unrelated viewer", 2, publicUser(1), nil, true},
		{"private owner, anonymous viewer", AnonymousViewer, privateUser(1), nil, false},
		{"private owner, unrelated viewer", 2, privateUser(1), nil, false},
		{"private owner, accepted follower", 2, privateUser(1), map[[2]uint]bool{{2, 1}: true}, true},
		{"private owner, pending follower", 2, privateUser(1), map[[2]uint]bool{}, false},
		{"private owner sees own content", 1, privateUser(1), nil, true},
		{"legacy privacy column, unrelated viewer", 2, legacyPrivateUser(1), nil, false},
		{"legacy privacy column, accepted follower", 2, legacyPrivateUser(1), map[[2]uint]bool{{2, 1}: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(&fakeFollowStore{accepted: tt.accepted}, nil)
			got, err := r.CanView(tt.viewerID, tt.owner)
			if err != nil {
				t.Fatalf("CanView returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanView(%d, owner %d) = %v, want %v", tt.viewerID, tt.owner.ID, got, tt.want)
			}
		})
	}
}

func TestVisibleOwnerSet(t *testing.T) {
	// Owner 1 public, owner 2 private (viewer accepted), owner 3 private
	// (no relationship), owner 4 public but mutually blocked with viewer.
	follows := &fakeFollowStore{accepted: map[[2]uint]bool{{9, 2}: true}}
	blocks := &fakeBlockStore{blocks: map[[2]uint]bool{{4, 9}: true}}
	r := NewResolver(follows, blocks)

	owners := map[uint]*models.User{
		1: publicUser(1),
		2: privateUser(2),
		3: privateUser(3),
		4: publicUser(4),
	}

	visible, err := r.VisibleOwnerSet(9, owners)
	if err != nil {
		t.Fatalf("VisibleOwnerSet returned error: %v", err)
	}

	want := map[uint]bool{1: true, 2: true, 3: false, 4: false}
	for id, expected := range want {
		if visible[id] != expected {
			t.Errorf("owner %d visible = %v, want %v", id, visible[id], expected)
		}
	}
}

func TestVisibleOwnerSetAnonymous(t *testing.T) {
	r := newResolver(nil, nil)
	owners := map[uint]*models.User{
		1: publicUser(1),
		2: privateUser(2),
	}
	visible, err := r.VisibleOwnerSet(AnonymousViewer, owners)
	if err != nil {
		t.Fatalf("VisibleOwnerSet returned error: %v", err)
	}
	if !visible[1] {
		t.Error("public owner should be visible to anonymous viewer")
	}
	if visible[2] {
		t.Error("private owner should not be visible to anonymous viewer")
	}
}

func TestVisibleOwnerSetFailsClosed(t *testing.T) {
	storeErr := errors.New("store unavailable")
	r := NewResolver(
		&fakeFollowStore{accepted: map[[2]uint]bool{}},
		&fakeBlockStore{err: storeErr},
	)
	_, err := r.VisibleOwnerSet(9, map[uint]*models.User{1: publicUser(1)})
	if err == nil {
		t.Fatal("expected error when the block store fails, got nil")
	}
}

func TestCanMessage(t *testing.T) {
	tests := []struct {
		name     string
		a, b     uint
		accepted map[[2]uint]bool
		blocks   map[[2]uint]bool
		want     bool
	}{
		{"no relationship", 1, 2, nil, nil, false},
		{"a follows b accepted", 1, 2, map[[2]uint]bool{{1, 2}: true}, nil, true},
		{"b follows a accepted", 1, 2, map[[2]uint]bool{{2, 1}: true}, nil, true},
		{"accepted follow but a blocked b", 1, 2,
			map[[2]uint]bool{{1, 2}: true, {2, 1}: true},
			map[[2]uint]bool{{1, 2}: true}, false},
		{"accepted follow but b blocked a", 1, 2,
			map[[2]uint]bool{{1, 2}: true},
			map[[2]uint]bool{{2, 1}: true}, false},
		{"self message forbidden", 1, 1, map[[2]uint]bool{{1, 1}: true}, nil, false},
		{"anonymous participant", AnonymousViewer, 2, nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.accepted == nil {
				tt.accepted = map[[2]uint]bool{}
			}
			if tt.blocks == nil {
				tt.blocks = map[[2]uint]bool{}
			}
			r := NewResolver(&fakeFollowStore{accepted: tt.accepted}, &fakeBlockStore{blocks: tt.blocks})
			got, err := r.CanMessage(tt.a, tt.b)
			if err != nil {
				t.Fatalf("CanMessage returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanMessage(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCanMessageFailsClosedOnBlockError(t *testing.T) {
	r := NewResolver(
		&fakeFollowStore{accepted: map[[2]uint]bool{{1, 2}: true}},
		&fakeBlockStore{err: errors.New("store unavailable")},
	)
	ok, err := r.CanMessage(1, 2)
	if err == nil {
		t.Fatal("expected error when the block store fails, got nil")
	}
	if ok {
		t.Error("CanMessage must not allow messaging when the block check fails")
	}
}
