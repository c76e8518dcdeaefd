package contract

// Channel is the usage context a turn is billed and configured under.
type Channel string

const (
	ChannelMerchant Channel = "merchant"
	ChannelSupport  Channel = "support"
	ChannelRescue   Channel = "rescue"
)

// TurnStatus is reported in Response.Data["status"].
type TurnStatus string

const (
	StatusAnswered     TurnStatus = "ANSWERED"
	StatusHandedOff    TurnStatus = "HANDED_OFF"
	StatusLimitReached TurnStatus = "LIMIT_REACHED"
	StatusDegraded     TurnStatus = "DEGRADED"
)

type Options struct {
	ConversationID string   `json:"conversation_id,omitempty"`
	RequestID      string   `json:"request_id,omitempty"`
	UserID         string   `json:"user_id,omitempty"`
	Channel        Channel  `json:"channel,omitempty"`
	Confidence     *float64 `json:"confidence,omitempty"`
	Sentiment      *float64 `json:"sentiment,omitempty"`
}

type Response struct {
	Message          string         `json:"message"`
	SuggestedActions []string       `json:"suggested_actions,omitempty"`
	Data             map[string]any `json:"data,omitempty"`
}

const (
	DefaultTonePreset      = "Friendly"
	DefaultPersuasionLevel = 1
)

type StoreProfile struct {
	StoreID         string `json:"store_id"`
	Name            string `json:"name"`
	Category        string `json:"category,omitempty"`
	TonePreset      string `json:"tone_preset,omitempty"`
	BrevityMode     string `json:"brevity_mode,omitempty"`
	PersuasionLevel int    `json:"persuasion_level"`
}

// DefaultStoreProfile is the profile a store gets until its merchant
// configures one.
func DefaultStoreProfile(storeID string) StoreProfile {
	return StoreProfile{
		StoreID:         storeID,
		TonePreset:      DefaultTonePreset,
		PersuasionLevel: DefaultPersuasionLevel,
	}
}

type RetrievalResult struct {
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
	Content    string `json:"content"`
}

type StockStatus string

const (
	InStock    StockStatus = "IN_STOCK"
	OutOfStock StockStatus = "OUT_OF_STOCK"
)

type InventoryStatus struct {
	ProductID string      `json:"productId"`
	Name      string      `json:"name"`
	Status    StockStatus `json:"status"`
	Available int         `json:"available"`
}

type DeliveryQuote struct {
	Location      string `json:"location"`
	CostKobo      int64  `json:"costKobo"`
	EstimatedDays int    `json:"estimatedDays"`
	Carrier       string `json:"carrier"`
}

type Promotion struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Value       float64 `json:"value"`
}

type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type OrderRequest struct {
	Items          []OrderItem `json:"items"`
	Address        string      `json:"address,omitempty"`
	ConversationID string      `json:"conversationId,omitempty"`
}

type OrderConfirmation struct {
	OrderID   string `json:"orderId"`
	Status    string `json:"status"`
	TotalKobo int64  `json:"totalKobo"`
	Message   string `json:"message,omitempty"`
}

type Ticket struct {
	StoreID        string `json:"store_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	Type           string `json:"type"`
	Category       string `json:"category"`
	Priority       string `json:"priority"`
	Status         string `json:"status"`
	Subject        string `json:"subject"`
	Summary        string `json:"summary"`
}

// ToolResult is the outcome of one tool call. Exactly one of Result or Error
// is meaningful.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
