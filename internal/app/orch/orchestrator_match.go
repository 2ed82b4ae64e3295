package orch

import (
	"github.com/dkeye/hotspot/internal/app"
	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
	"github.com/rs/zerolog/log"
)

// RegisterIntent is a client "register" intent.
type RegisterIntent struct {
	UserID    string   `json:"userId"`
	Age       *int     `json:"age"`
	Languages []string `json:"languages"`
	Interests []string `json:"interests"`
}

// MatchIntent carries the requester preferences of a "match" intent.
type MatchIntent struct {
	UserID    string   `json:"userId"`
	Languages []string `json:"languages"`
	Interests []string `json:"interests"`
	MinAge    *int     `json:"minAge"`
	MaxAge    *int     `json:"maxAge"`
}

func (o *Orchestrator) Register(id core.ConnectionID, in RegisterIntent) {
	o.submit(func() { o.register(id, in) })
}

func (o *Orchestrator) Unregister(id core.ConnectionID) {
	o.submit(func() { o.Pool.Remove(id) })
}

func (o *Orchestrator) RequestMatch(id core.ConnectionID, in MatchIntent) {
	o.submit(func() { o.requestMatch(id, in) })
}

// EndSession ends the peer session of id on request.
func (o *Orchestrator) EndSession(id core.ConnectionID) {
	o.submit(func() { o.endSession(id) })
}

func (o *Orchestrator) register(id core.ConnectionID, in RegisterIntent) {
	userID, ok := o.announce(id, in.UserID)
	if !ok {
		return
	}
	age := in.Age
	if age != nil && *age <= 0 {
		age = nil
	}
	o.Pool.Upsert(id, domain.Registration{
		UserID:    userID,
		Age:       age,
		Languages: domain.NewSet(in.Languages),
		Interests: domain.NewSet(in.Interests),
	})
	if _, paired := o.Sessions.Partner(id); paired {
		o.Pool.SetBusy(id, true)
	}
}

func (o *Orchestrator) requestMatch(id core.ConnectionID, in MatchIntent) {
	logger := log.With().Str("module", "orch").Str("conn", string(id)).Logger()
	userID, ok := o.announce(id, in.UserID)
	if !ok {
		return
	}
	if _, paired := o.Sessions.Partner(id); paired {
		logger.Debug().Msg("match rejected: already paired")
		o.sendTo(id, app.EventError, app.ErrorEvent{Code: app.CodeAlreadyPaired})
		return
	}
	prefs := domain.Preferences{
		UserID:    userID,
		Languages: in.Languages,
		Interests: in.Interests,
		MinAge:    in.MinAge,
		MaxAge:    in.MaxAge,
	}
	cand, found := o.Engine.Select(o.Pool, id, prefs)
	if !found {
		logger.Debug().Msg("match: waiting")
		o.sendTo(id, app.EventMatchWaiting, nil)
		return
	}
	if err := o.Sessions.Open(id, cand.ID); err != nil {
		logger.Warn().Err(err).Str("partner", string(cand.ID)).Msg("match rejected")
		o.sendTo(id, app.EventError, app.ErrorEvent{Code: app.CodeAlreadyPaired})
		return
	}
	o.Pool.SetBusy(id, true)
	o.Pool.SetBusy(cand.ID, true)

	partnerUser := cand.UserID
	if partnerUser == "" {
		partnerUser, _ = o.Registry.Lookup(cand.ID)
	}
	logger.Info().Str("partner", string(cand.ID)).Msg("match found")
	o.sendTo(id, app.EventMatchFound, app.MatchFoundEvent{PartnerID: cand.ID, UserID: partnerUser})
	o.sendTo(cand.ID, app.EventMatchFound, app.MatchFoundEvent{PartnerID: id, UserID: userID})
}

// endSession closes the session of id, tells the partner and returns both
// sides to the eligible pool when they are still registered.
func (o *Orchestrator) endSession(id core.ConnectionID) {
	partner, ok := o.Sessions.Close(id)
	if !ok {
		return
	}
	o.Pool.SetBusy(id, false)
	o.Pool.SetBusy(partner, false)
	o.sendTo(partner, app.EventMatchEnded, app.MatchEndedEvent{PartnerID: id})
}
