package main

import (
	"roomsync/room"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

type PeerLogger struct {
	zerolog zerolog.Logger
}

func GetPeerLogger(ip string, handle room.Handle) PeerLogger {
	return PeerLogger{log.With().Str("ip", ip).Uint64("handle", uint64(handle)).Str("session", uuid.NewString()).Logger()}
}

func (l PeerLogger) Connected(resumed bool) {
	l.zerolog.Info().Bool("resumed", resumed).Msg("Peer connected")
}

func (l PeerLogger) Disconnected() {
	l.zerolog.Info().Msg("Peer disconnected")
}

func (l PeerLogger) IgnoredMessage(err error) {
	l.zerolog.Warn().Err(err).Msg("Ignored message")
}

func (l PeerLogger) Rejected(err error) {
	l.zerolog.Info().Err(err).Msg("Request rejected")
}

func LogStartedServer(port string) {
	log.Info().Msgf("Starting server on port %v", port)
}

func LogHostSeat(handle room.Handle) {
	log.Info().Uint64("handle", uint64(handle)).Msg("Host seat enabled")
}

func LogShuttingDown() {
	log.Info().Msg("Shutting down")
}

func LogErrorWhileUpgradingHTTP(err error) {
	log.Error().Err(err).Msg("Error while upgrading HTTP")
}

func LogDroppedPeer(handle room.Handle) {
	log.Warn().Uint64("handle", uint64(handle)).Msg("Dropping slow peer")
}
