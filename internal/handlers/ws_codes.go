// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the room socket.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Provided auth token was invalid or expired.
	InvalidRoomIDError    = 3003 // Room in the WS URL does not exist (any more).
	JoinRejectedError     = 3004 // The room refused the player; the error message says why.
	RoomClosedError       = 3005 // The room was removed while the player was connected.
	ReplacedError         = 3006 // The same player opened a newer connection to the room.
)
