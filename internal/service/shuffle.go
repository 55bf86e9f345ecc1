package service

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"matchroom/internal/domain"
	"matchroom/internal/repository"
)

// ShuffleService maintains the per-member shuffled lists: independent
// permutations of the room's master list that stay set-equal to it through
// regeneration and live injection.
type ShuffleService struct {
	roomRepo   repository.RoomRepository
	memberRepo repository.MemberRepository
}

// NewShuffleService creates a ShuffleService instance.
func NewShuffleService(roomRepo repository.RoomRepository, memberRepo repository.MemberRepository) *ShuffleService {
	if roomRepo == nil || memberRepo == nil {
		panic("all repositories must be non-nil for ShuffleService")
	}
	return &ShuffleService{roomRepo: roomRepo, memberRepo: memberRepo}
}

// MemberConsistency is one member's entry in a consistency report.
type MemberConsistency struct {
	UserID    uint `json:"userId"`
	HasList   bool `json:"hasList"`
	SizeMatch bool `json:"sizeMatch"`
	SetMatch  bool `json:"setMatch"`
}

// ConsistencyReport is the result of VerifyConsistency. Discrepancies carries
// one human-readable line per violation instead of collapsing everything into
// a single boolean.
type ConsistencyReport struct {
	RoomID            uint                `json:"roomId"`
	MasterSize        int                 `json:"masterSize"`
	Members           []MemberConsistency `json:"members"`
	OrderingsDistinct bool                `json:"orderingsDistinct"`
	Discrepancies     []string            `json:"discrepancies"`
	Consistent        bool                `json:"consistent"`
}

// Distribute generates a fresh independent permutation of masterList for
// every current member and returns how many lists were written. An empty
// master list distributes zero lists; that is a no-op, not an error.
func (s *ShuffleService) Distribute(ctx context.Context, roomID uint, masterList []domain.ContentID) (int, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "list_size": len(masterList)})

	members, err := s.memberRepo.FindByRoom(ctx, roomID)
	if err != nil {
		logCtx.WithError(err).Error("Distribute: failed to load members")
		return 0, mapStoreError(err, ErrRoomNotFound)
	}
	if len(masterList) == 0 {
		logCtx.Info("Distribute: empty master list, nothing to distribute")
		return 0, nil
	}

	count := 0
	for i := range members {
		member := members[i]
		rng := newIndependentRNG()
		shuffled := shuffleCopy(masterList, rng)
		// A fresh permutation invalidates the member's old position, so the
		// pointer restarts at the head.
		if err := s.storeMemberList(ctx, &member, shuffled, 0); err != nil {
			logCtx.WithError(err).WithField("member_id", member.ID).Error("Distribute: failed to store shuffled list")
			return count, err
		}
		count++
	}

	logCtx.WithField("distributed", count).Info("Shuffled lists distributed")
	return count, nil
}

// Regenerate re-permutes every member's list from the room's existing master
// list, without changing the master list itself.
func (s *ShuffleService) Regenerate(ctx context.Context, roomID uint) (int, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return 0, mapStoreError(err, ErrRoomNotFound)
	}
	masterList, err := room.ParseMasterList()
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Regenerate: corrupt master list column")
		return 0, ErrInternalServer
	}
	return s.Distribute(ctx, roomID, masterList)
}

// Inject appends the new ids that are not already on the master list, then
// splices each one into every member's shuffled list at a position chosen
// uniformly at random within [currentIndex+1, length]. Already-voted prefixes
// never change and injected items never land behind a member's position.
// Returns how many ids were actually new.
func (s *ShuffleService) Inject(ctx context.Context, roomID uint, newItemIDs []domain.ContentID) (int, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "offered": len(newItemIDs)})

	// 1. Grow the master list under its version guard. A lost race means
	// someone else changed the list concurrently; re-read and re-deduplicate.
	var unique []domain.ContentID
	for attempt := 0; ; attempt++ {
		room, err := s.roomRepo.FindByID(ctx, roomID)
		if err != nil {
			return 0, mapStoreError(err, ErrRoomNotFound)
		}
		masterList, err := room.ParseMasterList()
		if err != nil {
			logCtx.WithError(err).Error("Inject: corrupt master list column")
			return 0, ErrInternalServer
		}

		unique = dedupeAgainst(newItemIDs, masterList)
		if len(unique) == 0 {
			logCtx.Info("Inject: no new ids after deduplication")
			return 0, nil
		}

		err = s.roomRepo.UpdateMasterListIf(ctx, roomID, append(masterList, unique...), room.ListVersion)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrConflict) && attempt < casRetryLimit {
			logCtx.WithField("attempt", attempt+1).Debug("Inject: master list version conflict, retrying")
			continue
		}
		logCtx.WithError(err).Error("Inject: failed to grow master list")
		return 0, mapStoreError(err, ErrRoomNotFound)
	}
	logCtx = logCtx.WithField("injected", len(unique))

	// 2. Splice the new ids into every member's list. Members without a list
	// have no content yet; the next distribute covers them.
	members, err := s.memberRepo.FindByRoom(ctx, roomID)
	if err != nil {
		logCtx.WithError(err).Error("Inject: failed to load members")
		return len(unique), mapStoreError(err, ErrRoomNotFound)
	}
	for i := range members {
		member := members[i]
		if !member.HasList() {
			continue
		}
		if err := s.spliceIntoMember(ctx, &member, unique); err != nil {
			logCtx.WithError(err).WithField("member_id", member.ID).Error("Inject: failed to splice member list")
			return len(unique), err
		}
	}

	logCtx.Info("New content injected into room")
	return len(unique), nil
}

// MemberQueue returns the member's remaining shuffled list, the slice from
// the next-unseen pointer to the end, plus the pointer itself.
func (s *ShuffleService) MemberQueue(ctx context.Context, roomID, userID uint) ([]domain.ContentID, int, error) {
	member, err := s.memberRepo.FindByRoomAndUser(ctx, roomID, userID)
	if err != nil {
		return nil, 0, mapStoreError(err, ErrMemberNotFound)
	}
	list, err := member.ParseShuffledList()
	if err != nil {
		return nil, 0, ErrInternalServer
	}
	if member.CurrentIndex >= len(list) {
		return []domain.ContentID{}, member.CurrentIndex, nil
	}
	return list[member.CurrentIndex:], member.CurrentIndex, nil
}

// VerifyConsistency checks every member's shuffled list against the master
// list (set and size equality) and whether the orderings are pairwise
// distinct. Inconsistencies are reported as a list of discrepancies.
func (s *ShuffleService) VerifyConsistency(ctx context.Context, roomID uint) (*ConsistencyReport, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, mapStoreError(err, ErrRoomNotFound)
	}
	masterList, err := room.ParseMasterList()
	if err != nil {
		return nil, ErrInternalServer
	}
	members, err := s.memberRepo.FindByRoom(ctx, roomID)
	if err != nil {
		return nil, mapStoreError(err, ErrRoomNotFound)
	}

	report := &ConsistencyReport{
		RoomID:            roomID,
		MasterSize:        len(masterList),
		OrderingsDistinct: true,
		Discrepancies:     []string{},
	}
	masterSet := toSet(masterList)

	seenOrderings := make(map[string]uint) // ordering fingerprint -> first user id
	for i := range members {
		member := members[i]
		entry := MemberConsistency{UserID: member.UserID, HasList: member.HasList()}
		if !entry.HasList {
			// Joined before any distribute: legitimately has no content yet.
			report.Members = append(report.Members, entry)
			continue
		}

		list, perr := member.ParseShuffledList()
		if perr != nil {
			report.Discrepancies = append(report.Discrepancies,
				"member "+uitoa(member.UserID)+": shuffled list column is corrupt")
			report.Members = append(report.Members, entry)
			continue
		}

		entry.SizeMatch = len(list) == len(masterList)
		entry.SetMatch = setsEqual(toSet(list), masterSet)
		if !entry.SizeMatch {
			report.Discrepancies = append(report.Discrepancies,
				"member "+uitoa(member.UserID)+": list size differs from master list")
		}
		if !entry.SetMatch {
			report.Discrepancies = append(report.Discrepancies,
				"member "+uitoa(member.UserID)+": list is not set-equal to master list")
		}

		fingerprint := strings.Join(list, "\x1f")
		if firstUser, dup := seenOrderings[fingerprint]; dup && len(list) > 1 {
			report.OrderingsDistinct = false
			report.Discrepancies = append(report.Discrepancies,
				"members "+uitoa(firstUser)+" and "+uitoa(member.UserID)+" share an identical ordering")
		} else {
			seenOrderings[fingerprint] = member.UserID
		}
		report.Members = append(report.Members, entry)
	}

	report.Consistent = len(report.Discrepancies) == 0
	return report, nil
}

// --- private helpers ---

// storeMemberList writes a member's list under its version guard, re-reading
// and retrying a bounded number of times when the guard fails.
func (s *ShuffleService) storeMemberList(ctx context.Context, member *domain.Member, list []domain.ContentID, currentIndex int) error {
	version := member.ListVersion
	for attempt := 0; ; attempt++ {
		err := s.memberRepo.UpdateShuffledListIf(ctx, member.ID, list, currentIndex, version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrConflict) || attempt >= casRetryLimit {
			return mapStoreError(err, ErrMemberNotFound)
		}
		fresh, ferr := s.memberRepo.FindByRoomAndUser(ctx, member.RoomID, member.UserID)
		if ferr != nil {
			return mapStoreError(ferr, ErrMemberNotFound)
		}
		version = fresh.ListVersion
	}
}

// spliceIntoMember inserts each new id at an independent random position in
// [currentIndex+1, length], retrying against re-read state on a lost guard.
func (s *ShuffleService) spliceIntoMember(ctx context.Context, member *domain.Member, newIDs []domain.ContentID) error {
	current := member
	for attempt := 0; ; attempt++ {
		list, err := current.ParseShuffledList()
		if err != nil {
			return ErrInternalServer
		}
		rng := newIndependentRNG()
		for _, id := range newIDs {
			pos := insertPosition(rng, len(list), current.CurrentIndex)
			list = append(list, "")
			copy(list[pos+1:], list[pos:])
			list[pos] = id
		}

		err = s.memberRepo.UpdateShuffledListIf(ctx, current.ID, list, current.CurrentIndex, current.ListVersion)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrConflict) || attempt >= casRetryLimit {
			return mapStoreError(err, ErrMemberNotFound)
		}
		// Someone moved the pointer or rewrote the list; splice again on top
		// of what is actually stored now.
		fresh, ferr := s.memberRepo.FindByRoomAndUser(ctx, current.RoomID, current.UserID)
		if ferr != nil {
			return mapStoreError(ferr, ErrMemberNotFound)
		}
		current = fresh
	}
}

// newIndependentRNG seeds a fresh math/rand source from crypto/rand so member
// permutations never share a seed.
func newIndependentRNG() *rand.Rand {
	var seed int64
	if err := binary.Read(crand.Reader, binary.LittleEndian, &seed); err != nil {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// shuffleCopy returns a Fisher–Yates shuffled copy of items. O(n).
func shuffleCopy(items []domain.ContentID, rng *rand.Rand) []domain.ContentID {
	out := make([]domain.ContentID, len(items))
	copy(out, items)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// insertPosition picks a uniform position in [currentIndex+1, listLen]. When
// the member exhausted the list the only legal position is the end.
func insertPosition(rng *rand.Rand, listLen, currentIndex int) int {
	lo := currentIndex + 1
	if lo > listLen {
		return listLen
	}
	span := listLen - lo + 1
	if span <= 1 {
		return listLen
	}
	return lo + rng.Intn(span)
}

// dedupeAgainst returns the ids from offered that are neither on existing nor
// repeated within offered, preserving their original order.
func dedupeAgainst(offered, existing []domain.ContentID) []domain.ContentID {
	seen := toSet(existing)
	var out []domain.ContentID
	for _, id := range offered {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func toSet(ids []domain.ContentID) map[domain.ContentID]bool {
	set := make(map[domain.ContentID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func setsEqual(a, b map[domain.ContentID]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}

func uitoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
