package relay

// Events sent by app clients.
const (
	EventPingThermostat         = "request-ping-thermostat"
	EventGetClimateData         = "request-get-climate-data"
	EventUpdateClimateSettings  = "request-update-climate-settings"
	EventUpdateZoneName         = "request-update-zone-name"
	EventGetThermostatProgramID = "request-get-thermostat-program-id"
	EventGetPrograms            = "request-get-programs"
	EventSelectProgram          = "request-select-program"
	EventCreateProgram          = "request-create-program"
	EventUpdateProgram          = "request-update-program"
	EventDeleteProgram          = "request-delete-program"
	EventOperateGarageDoor      = "operate-garage-door"
	EventSetCamera              = "request-set-camera"
	EventStream                 = "request-stream"
	EventSetMotionDetection     = "request-set-motion-detection"
	EventShutdown               = "request-shutdown"
	EventGetVideoList           = "request-get-video-list"
	EventGetVideosByParams      = "request-get-videos-by-params"
	EventDeleteVideo            = "request-delete-video"
)

// Events sent by the field node.
const (
	EventNodePingResponse          = "proxy-response-ping-thermostat"
	EventNodeConnection            = "request-update-thermostat-connection"
	EventNodeDisconnection         = "request-update-thermostat-disconnection"
	EventNodeVerification          = "request-update-thermostat-verification"
	EventNodePostClimateData       = "proxy-request-post-climate-data"
	EventNodeClimateSettingsResult = "proxy-response-update-climate-settings"
	EventNodeProgramIDResponse     = "proxy-response-get-thermostat-program-id"
	EventNodeToggleProgramResult   = "proxy-response-toggle-program"
	EventNodeUpdateProgramResult   = "proxy-response-update-program"
	EventNodeInitialState          = "proxy-request-initial-state"
	EventNodeVideoAvailable        = "proxy-response-new-video-available"
	EventNodeVideoTrigger          = "proxy-response-new-video-trigger-event"
)

// Commands addressed to the field node. Every event carrying this prefix is
// meant for the thermostat or camera side.
const (
	ProxyPrefix = "proxy-request-"

	ProxyToggleProgram = "proxy-request-toggle-program"
	ProxyUpdateProgram = "proxy-request-update-program"
)

// Events broadcast to every peer.
const (
	BroadcastPrograms        = "broadcast-response-get-programs"
	BroadcastActiveProgram   = "broadcast-response-active-program"
	BroadcastProgramCreated  = "broadcast-response-create-program"
	BroadcastProgramUpdated  = "broadcast-response-update-program"
	BroadcastProgramDeleted  = "broadcast-response-delete-program"
	BroadcastClimateData     = "broadcast-response-climate-data"
	BroadcastGarageDoor      = "garage-door-status-changed"
	BroadcastVideoName       = "response-set-video-name"
	BroadcastNewVideo        = "broadcast-response-new-video"
	BroadcastVideoDeleted    = "response-delete-video"
	BroadcastNodeConnected   = "broadcast-request-update-thermostat-connection"
	BroadcastNodeDisconnect  = "broadcast-request-update-thermostat-disconnection"
	BroadcastNodeVerified    = "broadcast-request-update-thermostat-verification"
	BroadcastPingResponse    = "broadcast-proxy-response-ping-thermostat"
	BroadcastClimatePosted   = "broadcast-proxy-response-post-climate-data"
	BroadcastSettingsApplied = "broadcast-proxy-response-update-climate-settings"
	BroadcastProgramID       = "broadcast-proxy-response-get-thermostat-program-id"
	BroadcastToggleResult    = "broadcast-proxy-response-toggle-program"
	BroadcastUpdateResult    = "broadcast-proxy-response-update-program"
)

// Presence notices the hub broadcasts when a field node socket opens or
// closes. They carry a nodePresence payload and are distinct from the
// thermostat's own connection reports above.
const (
	BroadcastFieldNodeOnline  = "broadcast-field-node-online"
	BroadcastFieldNodeOffline = "broadcast-field-node-offline"
)

// Replies addressed only to the requesting peer.
const (
	ReplyVideoList = "response-get-video-list"
	EventError     = "error"
)

// proxyOf maps a client request to the command forwarded to the field node,
// e.g. request-stream becomes proxy-request-stream.
func proxyOf(event string) string {
	return "proxy-" + event
}

// broadcastOf maps a field node event to its broadcast name.
func broadcastOf(event string) string {
	return "broadcast-" + event
}
