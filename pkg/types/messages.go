package types

// Client -> Server (JSON text frames on /ws?code=ROOM&seat=warm|cool&player=ID)
// TakeGeneral:
//   general: string // a name, or "x<n>" for the n-th hidden general
//
// Arrange:
//   generals: string[3] // primary first, then the two reserves
//
// StartDraft: {} // both seats must be claimed

// Server -> Client
// Joined:
//   seat: "warm" | "cool" | "" // empty for spectators
//   payload: string // current pool joined by "+", empty before a draft
//
// Event:
//   event: "fillGenerals" | "takeGeneral" | "recoverGeneral" | "arranged" | "draftFinished"
//   seat: "warm" | "cool" // the acting seat, where there is one
//   payload: string
//     fillGenerals   -> "G1+G2+...+x0+x1" (hidden generals shown as x<n>)
//     takeGeneral    -> "<seat>:<name or x<n>>" (the taker sees the true name)
//     recoverGeneral -> "<n>:<name>" (taker only, before its takeGeneral)
//     arranged       -> "<seat>" (the line-up itself stays private until the result)
//
// Request:
//   event: "askForGeneral1v1" | "startArrange"
//   seat: "warm" | "cool" // only ever sent to that seat
//
// Error:
//   error: string
