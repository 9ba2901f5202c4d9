package fcm

// Message is an FCM HTTP v1 message addressed to a single device token.
type Message struct {
	Token        string            `json:"token"`
	Notification *Notification     `json:"notification,omitempty"`
	Android      *AndroidConfig    `json:"android,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
}

type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type AndroidConfig struct {
	Priority     string               `json:"priority,omitempty"`
	Notification *AndroidNotification `json:"notification,omitempty"`
}

type AndroidNotification struct {
	ChannelID string `json:"channel_id,omitempty"`
}

// AndroidPriorityHigh wakes the device for delivery.
const AndroidPriorityHigh = "HIGH"

type sendRequest struct {
	Message *Message `json:"message"`
}

// errorResponse is the google.rpc.Status envelope returned on failure.
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type      string `json:"@type"`
			ErrorCode string `json:"errorCode"`
		} `json:"details"`
	} `json:"error"`
}
