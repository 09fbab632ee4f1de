// Package connect provides the Connect RPC remote control service.
//
// The service is described with protobuf well-known types, so it needs no
// generated code: commands take Empty, StringValue, Int32Value or DoubleValue
// and answer with a Struct holding the resulting snapshot.
package connect

// PlayerServiceName is the fully-qualified name of the player service.
const PlayerServiceName = "beatdeck.v1.PlayerService"

// Procedure paths of the player service.
const (
	GetSnapshotProcedure       = "/" + PlayerServiceName + "/GetSnapshot"
	GetQueueProcedure          = "/" + PlayerServiceName + "/GetQueue"
	PlayTrackProcedure         = "/" + PlayerServiceName + "/PlayTrack"
	PlayIndexProcedure         = "/" + PlayerServiceName + "/PlayIndex"
	ToggleProcedure            = "/" + PlayerServiceName + "/Toggle"
	ToggleCurrentProcedure     = "/" + PlayerServiceName + "/ToggleCurrent"
	PauseProcedure             = "/" + PlayerServiceName + "/Pause"
	ResumeProcedure            = "/" + PlayerServiceName + "/Resume"
	SkipNextProcedure          = "/" + PlayerServiceName + "/SkipNext"
	SkipBackProcedure          = "/" + PlayerServiceName + "/SkipBack"
	SeekProcedure              = "/" + PlayerServiceName + "/Seek"
	SetVolumeProcedure         = "/" + PlayerServiceName + "/SetVolume"
	ToggleShuffleProcedure     = "/" + PlayerServiceName + "/ToggleShuffle"
	ToggleRepeatProcedure      = "/" + PlayerServiceName + "/ToggleRepeat"
	GetLicenseOptionsProcedure = "/" + PlayerServiceName + "/GetLicenseOptions"
	WatchProcedure             = "/" + PlayerServiceName + "/Watch"
)

const (
	// ControlTokenHeader is the header name for the remote control token.
	ControlTokenHeader = "X-Control-Token"
	// DroppedHeader reports why a command was dropped without error,
	// e.g. "cooldown" or "queue_empty".
	DroppedHeader = "X-Beatdeck-Dropped"
)
