package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"matchroom/internal/catalog"
	"matchroom/internal/domain"
	"matchroom/internal/notify"
	"matchroom/internal/repository"
)

// MatchService is the vote and consensus engine. It records votes
// idempotently and detects unanimous agreement among the currently-active
// members exactly once, no matter how many stateless invocations race on the
// same (room, content) pair. The only synchronization it relies on is the
// store's conditional writes.
type MatchService struct {
	matchRepo  repository.MatchRepository
	voteRepo   repository.VoteRepository
	roomRepo   repository.RoomRepository
	memberRepo repository.MemberRepository
	activity   *ActivityService
	gateway    catalog.Gateway
	notifier   notify.Notifier
}

// NewMatchService creates a MatchService instance.
func NewMatchService(
	matchRepo repository.MatchRepository,
	voteRepo repository.VoteRepository,
	roomRepo repository.RoomRepository,
	memberRepo repository.MemberRepository,
	activity *ActivityService,
	gateway catalog.Gateway,
	notifier notify.Notifier,
) *MatchService {
	if matchRepo == nil || voteRepo == nil || roomRepo == nil || memberRepo == nil ||
		activity == nil || gateway == nil || notifier == nil {
		panic("all dependencies must be non-nil for MatchService")
	}
	return &MatchService{
		matchRepo:  matchRepo,
		voteRepo:   voteRepo,
		roomRepo:   roomRepo,
		memberRepo: memberRepo,
		activity:   activity,
		gateway:    gateway,
		notifier:   notifier,
	}
}

// MatchResult is the complete answer of a detection: either "no match yet"
// with accurate counts, or the previously-or-newly-created match. Never
// anything in between.
type MatchResult struct {
	HasMatch      bool   `json:"hasMatch"`
	MatchID       uint   `json:"matchId,omitempty"`
	ConsensusType string `json:"consensusType,omitempty"`
	Participants  []uint `json:"participants"`
	TotalVotes    int    `json:"totalVotes"`
	RequiredVotes int    `json:"requiredVotes"`
}

// CastVote records one member's reaction and evaluates consensus. Re-voting
// the same key is the idempotent no-op the append-only vote log makes it.
func (s *MatchService) CastVote(ctx context.Context, roomID, userID uint, contentID domain.ContentID, voteType string) (*MatchResult, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID, "content_id": contentID})

	// 1. Validate the vote itself.
	if !domain.IsValidVoteType(voteType) {
		return nil, ErrInvalidVote
	}
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, mapStoreError(err, ErrRoomNotFound)
	}
	if room.IsTerminal() {
		return nil, ErrRoomClosed
	}
	member, err := s.memberRepo.FindByRoomAndUser(ctx, roomID, userID)
	if err != nil {
		return nil, mapStoreError(err, ErrMemberNotFound)
	}
	masterList, err := room.ParseMasterList()
	if err != nil {
		logCtx.WithError(err).Error("CastVote: corrupt master list column")
		return nil, ErrInternalServer
	}
	if !containsID(masterList, contentID) {
		return nil, ErrInvalidVote
	}

	// 2. Append the vote. A duplicate key means this vote already exists and
	// is immutable; proceed as if this call had written it.
	vote := &domain.Vote{
		RoomID:    roomID,
		UserID:    userID,
		ContentID: contentID,
		VoteType:  voteType,
		VotedAt:   time.Now().UTC(),
	}
	if err := retryStore(ctx, func() error { return s.voteRepo.Create(ctx, vote) }); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.Debug("CastVote: vote already recorded, idempotent outcome")
		} else {
			logCtx.WithError(err).Error("CastVote: failed to record vote")
			return nil, mapStoreError(err, ErrRoomNotFound)
		}
	}

	// 3. Voting is activity.
	if err := s.activity.RecordActivity(ctx, roomID, userID); err != nil {
		logCtx.WithError(err).Warn("CastVote: failed to record activity")
	}

	// 4. Move the next-unseen pointer past the item when it was the head.
	s.advancePointer(ctx, member, contentID, logCtx)

	// 5. Evaluate consensus. A DISLIKE can never complete unanimity, but the
	// evaluation still returns accurate counts for the caller.
	return s.DetectMatch(ctx, roomID, contentID)
}

// DetectMatch evaluates unanimity for one (room, content) pair and creates
// the match exactly once. Repeated and concurrent calls all converge on the
// same match.
func (s *MatchService) DetectMatch(ctx context.Context, roomID uint, contentID domain.ContentID) (*MatchResult, error) {
	result, _, _, err := s.detect(ctx, roomID, contentID)
	return result, err
}

// CheckPendingMatches wraps DetectMatch and additionally reports whether this
// call produced the match (as opposed to observing a pre-existing one), so
// callers can skip redundant client notifications. The match is nil while
// there is no consensus.
func (s *MatchService) CheckPendingMatches(ctx context.Context, roomID uint, contentID domain.ContentID) (*domain.Match, bool, error) {
	_, match, created, err := s.detect(ctx, roomID, contentID)
	return match, created, err
}

// GetRoomMatches lists a room's matches, newest first. Read-only.
func (s *MatchService) GetRoomMatches(ctx context.Context, roomID uint, limit int) ([]domain.Match, error) {
	if _, err := s.roomRepo.FindByID(ctx, roomID); err != nil {
		return nil, mapStoreError(err, ErrRoomNotFound)
	}
	matches, err := s.matchRepo.FindByRoom(ctx, roomID, limit)
	if err != nil {
		return nil, mapStoreError(err, ErrRoomNotFound)
	}
	return matches, nil
}

// GetUserRecentMatches lists the newest matches a user participated in.
// Read-only.
func (s *MatchService) GetUserRecentMatches(ctx context.Context, userID uint, limit int) ([]domain.Match, error) {
	matches, err := s.matchRepo.FindRecentByParticipant(ctx, userID, limit)
	if err != nil {
		return nil, mapStoreError(err, ErrInternalServer)
	}
	return matches, nil
}

// detect is the single consensus path shared by DetectMatch and
// CheckPendingMatches.
func (s *MatchService) detect(ctx context.Context, roomID uint, contentID domain.ContentID) (*MatchResult, *domain.Match, bool, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "content_id": contentID})

	// 1. Idempotent short-circuit: an existing match is returned unchanged,
	// with no re-evaluation and no duplicate side effects. The only extra
	// work is repairing a follow-up a crashed predecessor left unfinished.
	existing, err := s.matchRepo.FindByRoomAndContent(ctx, roomID, contentID)
	if err == nil {
		s.repairFollowUp(ctx, existing, logCtx)
		return resultFromMatch(existing), existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, false, mapStoreError(err, ErrRoomNotFound)
	}

	// 2. Unanimity is a pure function over two point-in-time snapshots: the
	// active member set and the votes for this item. No incremental counter:
	// counters drift when membership or activity changes between votes.
	active, err := s.activity.ActiveMembersForConsensus(ctx, roomID)
	if err != nil {
		return nil, nil, false, err
	}
	votes, err := s.voteRepo.FindByRoomAndContent(ctx, roomID, contentID)
	if err != nil {
		return nil, nil, false, mapStoreError(err, ErrRoomNotFound)
	}

	likes := make(map[uint]bool, len(votes))
	for _, vote := range votes {
		if vote.VoteType == domain.VoteLike {
			likes[vote.UserID] = true
		}
	}

	// A room with zero active members can never match.
	unanimous := len(active) > 0
	for _, member := range active {
		if !likes[member.UserID] {
			unanimous = false
			break
		}
	}

	// 3. Not unanimous: a complete "no match yet" with accurate counts.
	if !unanimous {
		return &MatchResult{
			HasMatch:      false,
			Participants:  []uint{},
			TotalVotes:    len(votes),
			RequiredVotes: len(active),
		}, nil, false, nil
	}

	// 4. Content detail must be resolvable before any write happens. If the
	// catalog is down the whole detection aborts; no partial match is ever
	// persisted.
	if _, err := s.gateway.FetchContent(ctx, contentID); err != nil {
		logCtx.WithError(err).Error("detect: catalog unavailable, aborting match creation")
		return nil, nil, false, ErrCatalogUnavailable
	}

	// 5. The conditional insert: exactly one concurrent caller wins; losers
	// re-read the winner and return it (same contract as step 1).
	participants := make([]uint, 0, len(active))
	for _, member := range active {
		participants = append(participants, member.UserID)
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i] < participants[j] })

	match := &domain.Match{
		RoomID:        roomID,
		ContentID:     contentID,
		ConsensusType: domain.ConsensusTypeFor(len(participants)),
		TotalVotes:    len(votes),
		RequiredVotes: len(active),
	}
	if err := match.SetParticipants(participants); err != nil {
		return nil, nil, false, ErrInternalServer
	}

	err = retryStore(ctx, func() error { return s.matchRepo.CreateIfAbsent(ctx, match) })
	if errors.Is(err, repository.ErrDuplicateEntry) {
		winner, ferr := s.matchRepo.FindByRoomAndContent(ctx, roomID, contentID)
		if ferr != nil {
			return nil, nil, false, mapStoreError(ferr, ErrRoomNotFound)
		}
		logCtx.WithField("match_id", winner.ID).Debug("detect: lost match creation race, returning winner")
		s.repairFollowUp(ctx, winner, logCtx)
		return resultFromMatch(winner), winner, false, nil
	}
	if err != nil {
		logCtx.WithError(err).Error("detect: failed to create match")
		return nil, nil, false, mapStoreError(err, ErrRoomNotFound)
	}

	logCtx.WithField("match_id", match.ID).Info("Match created")

	// 6. Follow-up writes: status flip and notifications. Both are guarded
	// and idempotent, so a crash in between is repaired by the next call.
	s.followUp(ctx, match, logCtx)
	return resultFromMatch(match), match, true, nil
}

// followUp flips the room to MATCHED and sends the notifications. Each write
// is individually guarded; losing either guard means someone else already
// completed that part.
func (s *MatchService) followUp(ctx context.Context, match *domain.Match, logCtx *logrus.Entry) {
	if err := s.roomRepo.MarkMatched(ctx, match.RoomID, match.ContentID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			logCtx.Debug("followUp: room already terminal")
		} else {
			logCtx.WithError(err).Error("followUp: failed to flip room status")
		}
	}

	if err := s.matchRepo.MarkNotified(ctx, match.ID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Another caller owns the notification side effect.
			match.NotificationsSent = true
			return
		}
		logCtx.WithError(err).Error("followUp: failed to mark match notified")
		return
	}
	match.NotificationsSent = true

	participants, _ := match.ParseParticipants()
	err := s.notifier.Notify(ctx, match.RoomID, notify.EventMatchFound, map[string]interface{}{
		"matchId":       match.ID,
		"contentId":     match.ContentID,
		"consensusType": match.ConsensusType,
		"participants":  participants,
	})
	if err != nil {
		// Fire-and-forget: a failed notification is logged, never propagated.
		logCtx.WithError(err).Error("followUp: failed to notify match")
	}
}

// repairFollowUp reruns the follow-up writes for a match whose notifications
// flag never flipped, the divergence a crash between the match insert and
// the status flip leaves behind. Best effort.
func (s *MatchService) repairFollowUp(ctx context.Context, match *domain.Match, logCtx *logrus.Entry) {
	if match.NotificationsSent {
		return
	}
	logCtx.WithField("match_id", match.ID).Info("Repairing unfinished match follow-up")
	s.followUp(ctx, match, logCtx)
}

// advancePointer moves the member's next-unseen pointer when the voted item
// is the current head. Losing the guard just means another invocation of the
// same member moved it already.
func (s *MatchService) advancePointer(ctx context.Context, member *domain.Member, contentID domain.ContentID, logCtx *logrus.Entry) {
	list, err := member.ParseShuffledList()
	if err != nil || member.CurrentIndex >= len(list) {
		return
	}
	if list[member.CurrentIndex] != contentID {
		return
	}
	err = s.memberRepo.UpdateCurrentIndexIf(ctx, member.ID, member.CurrentIndex+1, member.CurrentIndex)
	if err != nil && !errors.Is(err, repository.ErrConflict) {
		logCtx.WithError(err).Warn("Failed to advance member pointer")
	}
}

func resultFromMatch(match *domain.Match) *MatchResult {
	participants, err := match.ParseParticipants()
	if err != nil {
		participants = []uint{}
	}
	return &MatchResult{
		HasMatch:      true,
		MatchID:       match.ID,
		ConsensusType: match.ConsensusType,
		Participants:  participants,
		TotalVotes:    match.TotalVotes,
		RequiredVotes: match.RequiredVotes,
	}
}

func containsID(ids []domain.ContentID, id domain.ContentID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
