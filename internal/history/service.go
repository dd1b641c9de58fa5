package history

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"HoldemCore/internal/game/engine"
	"HoldemCore/internal/hub"
)

type Service struct {
	repo   Repo
	hub    HubBroadcaster
	logger *log.Logger
}

type HubBroadcaster interface {
	BroadcastToPlayers(ids []string, msg hub.OutgoingMessage)
}

func NewService(repo Repo, h HubBroadcaster, logger *log.Logger) *Service {
	if h == nil {
		h = hub.Discard{}
	}

	return &Service{repo: repo, hub: h, logger: logger.WithPrefix("history")}
}

// Record 保存一手牌并通知桌上玩家
func (s *Service) Record(ctx context.Context, res *engine.Result) (*HandRecord, error) {
	if res == nil {
		return nil, errors.New("no hand result to record")
	}

	rec := FromResult(res)
	if err := s.repo.Append(ctx, rec); err != nil {
		s.logger.Error("append hand", "hand", rec.ID, "err", err)
		return nil, err
	}

	s.logger.Debug("hand recorded", "hand", rec.Hand, "id", rec.ID, "pot", rec.Pot)
	s.hub.BroadcastToPlayers(rec.Players, hub.OutgoingMessage{
		Event: hub.EventHandRecorded,
		Data: map[string]any{
			"hand":    rec.ID,
			"number":  rec.Hand,
			"winners": rec.Winners,
			"pot":     rec.Pot,
		},
	})

	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (*HandRecord, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Recent(ctx context.Context, n int) ([]*HandRecord, error) {
	return s.repo.Recent(ctx, n)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
