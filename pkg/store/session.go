package store

// Session represents the active chat session state in memory. The pipeline
// only needs the last interaction for logging and follow-up routing; the
// durable transcript lives in the database.
type Session struct {
	ID         string `json:"id"` // ChatSessionID
	UserID     string `json:"user_id"`
	LastQuery  string `json:"last_query"`
	LastIntent string `json:"last_intent"`
}
