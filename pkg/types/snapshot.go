package types

// GET /lobbies/{code}:
//   code: string
//   num_clients: number
//   running: boolean
//   seats: { warm?: Seat, cool?: Seat }
//   draft?: { session_id, phase: "waiting" | "drafting" | "arranging" | "done", pool: string[], turn?: "warm" | "cool", pending: boolean }
//   last?: { session_id, seats: { warm: Seat, cool: Seat } }
//
// Seat:
//   player_id: string
//   online?: boolean
//   selected?: string[] // while running: as announced, hidden picks stay "x<n>"
//   general?: string    // only once the draft is over
//   reserve?: string[2] // only once the draft is over
//
// GET /lobbies/{code}/drafts:
//   [{ session_id, created_at, seats: { warm: Seat, cool: Seat } }]
