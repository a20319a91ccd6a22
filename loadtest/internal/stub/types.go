package stub

// ReceivedNotification is one webhook delivery captured by the sink.
type ReceivedNotification struct {
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	SoundEnabled bool   `json:"sound_enabled"`
	FiredAt      int64  `json:"fired_at"`
	ReceivedAt   int64  `json:"received_at"`
}

// NotificationsResponse lists captured deliveries for one run.
type NotificationsResponse struct {
	Notifications []ReceivedNotification `json:"notifications"`
	Count         int                    `json:"count"`
}
